// Package onboarding tracks each profile's progress through the first-run
// flow.
//
// The flow has three steps. The dashboard polls the advance endpoint on
// every page load, so the step counter moves forward monotonically, clamps
// at the final step, and holds at the completed sentinel once the flow is
// finished. The increment is a compare-and-set against the step that was
// just read, so duplicate polls from multiple tabs collapse into a single
// step instead of stacking. The remembered-organization slot is stored
// alongside the step but never coupled to it.
package onboarding
