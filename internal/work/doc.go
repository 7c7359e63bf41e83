// Package work implements the durable work processor that drives every
// background action in foundry.
//
// # Persisted cursors
//
// Nothing is scheduled in memory. Each work type finds its subjects by
// scanning persisted state:
//   - agent:launch: agents whose launch_date has passed
//   - workflow:<stage>: companies whose workflow cursor sits on that stage
//   - maintenance:*: global housekeeping on an interval or on request
//
// A restart therefore loses nothing: the first pass after startup finds the
// overdue launches and the interrupted stages again.
//
// # Wakeups
//
// The processor runs when triggered: by the scheduler's sweep, by
// TriggerAfter for the short pause after a launch or an approval, and by the
// HTTP trigger route. TriggerAfter only schedules a wakeup; losing it on
// restart costs at most one sweep interval.
//
// # Retries
//
// Each work type carries a retry budget. Failed items back off and are
// retried until the budget is spent, then skipped until the process restarts
// or the item is requested again. Workflow stages have no budget: a failed
// stage is recorded on the workflow itself.
package work
