package dualvm

// ZkStartupMigration gates the one-time rewrite of account state from the
// native storage encoding into the zkVM one. Migration cannot run before the
// baseline system contracts are deployed, so a session starts in Defer, is
// switched to Allow once setup completes, and ends in Done after the rewrite
// has been performed. Done is terminal.
type ZkStartupMigration byte

const (
	// MigrationDefer delays the startup migration until setup has finished.
	MigrationDefer ZkStartupMigration = iota
	// MigrationAllow permits the one-shot migration to run.
	MigrationAllow
	// MigrationDone records that the migration has been performed.
	MigrationDone
)

// Allow transitions Defer to Allow. It is a no-op in any other state; in
// particular it never resurrects a completed migration.
func (s *ZkStartupMigration) Allow() {
	if *s == MigrationDefer {
		*s = MigrationAllow
	}
}

// Done marks the migration as performed. Terminal.
func (s *ZkStartupMigration) Done() {
	*s = MigrationDone
}

// IsAllowed reports whether the migration may run now.
func (s ZkStartupMigration) IsAllowed() bool {
	return s == MigrationAllow
}

// IsDone reports whether the migration has already been performed.
func (s ZkStartupMigration) IsDone() bool {
	return s == MigrationDone
}

func (s ZkStartupMigration) String() string {
	switch s {
	case MigrationDefer:
		return "defer"
	case MigrationAllow:
		return "allow"
	case MigrationDone:
		return "done"
	default:
		return "unknown"
	}
}
