package models

import "time"

// CycleStats summarizes one orchestrator scan cycle. It is an owned value
// returned by RunCycle so a single cycle can be asserted on in isolation.
type CycleStats struct {
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	GroupsSeen      int       `json:"groupsSeen"`
	GroupsProcessed int       `json:"groupsProcessed"`
	GroupsSkipped   int       `json:"groupsSkipped"` // Groups without stability files
	GroupsErrored   int       `json:"groupsErrored"`
	FilesProcessed  int       `json:"filesProcessed"`
	FilesErrored    int       `json:"filesErrored"`
	SessionsCreated int       `json:"sessionsCreated"`
	SessionsReused  int       `json:"sessionsReused"`
	RecordsWritten  int       `json:"recordsWritten"`
}

// Add accumulates another cycle's counters into s
func (s *CycleStats) Add(other CycleStats) {
	s.GroupsSeen += other.GroupsSeen
	s.GroupsProcessed += other.GroupsProcessed
	s.GroupsSkipped += other.GroupsSkipped
	s.GroupsErrored += other.GroupsErrored
	s.FilesProcessed += other.FilesProcessed
	s.FilesErrored += other.FilesErrored
	s.SessionsCreated += other.SessionsCreated
	s.SessionsReused += other.SessionsReused
	s.RecordsWritten += other.RecordsWritten
}

// GroupResult summarizes the outcome of one processed file group.
// ProcessedPaths lists the files whose records were written; the
// orchestrator records them so they are not parsed again. AlreadyIngested
// marks a group whose session was filled before this process started.
type GroupResult struct {
	SessionID       int64    `json:"sessionId"`
	SessionCreated  bool     `json:"sessionCreated"`
	AlreadyIngested bool     `json:"alreadyIngested"`
	FilesProcessed  int      `json:"filesProcessed"`
	FilesErrored    int      `json:"filesErrored"`
	RecordsWritten  int      `json:"recordsWritten"`
	SegmentsWritten int      `json:"segmentsWritten"`
	ProcessedPaths  []string `json:"-"`
}
