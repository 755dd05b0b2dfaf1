// Package core defines the shared data model of the orchestration engine: the
// per-thread State threaded through the agent graph, the Step enumeration
// driving the state machine, role-tagged messages, tool results and the
// StepEvent/StateDiff types used by the streaming entry point.
//
// State is the sole unit of persistence. It is mutated exclusively by graph
// steps and checkpointed after every step transition so that a crash mid-turn
// resumes at the last completed step.
package core
