// Package achievement provides the badge rules engine.
//
// A Tracker folds discrete user actions into the profile's persisted
// progress counters, then evaluates every locked rule. Rules that become
// true unlock exactly once: the unlock is recorded in the same preference
// update that changed the counters, so replaying an event can never unlock
// twice. Each unlock pushes one achievement notification.
package achievement
