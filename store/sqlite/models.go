package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/wallet/snapshot"
)

// timeLayout is fixed-width UTC so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// snapshotModel keeps the encoded state as TEXT; SQLite has no unsigned
// 64-bit column type, so balances never leave their JSON form. Times are
// stored as timeLayout strings.
type snapshotModel struct {
	grove.BaseModel `grove:"table:wallet_snapshots"`

	ID        string `grove:"id,pk"`
	Version   int64  `grove:"version"`
	Accounts  int    `grove:"accounts"`
	State     string `grove:"state"`
	TakenAt   string `grove:"taken_at"`
	CreatedAt string `grove:"created_at"`
}

func toSnapshotModel(s *snapshot.Snapshot) (*snapshotModel, error) {
	state, err := s.Encode()
	if err != nil {
		return nil, err
	}
	return &snapshotModel{
		ID:        s.ID.String(),
		Version:   int64(s.Version), //nolint:gosec // mutation counter stays far below MaxInt64
		Accounts:  len(s.Accounts),
		State:     string(state),
		TakenAt:   formatTime(s.TakenAt),
		CreatedAt: formatTime(now()),
	}, nil
}

func fromSnapshotModel(m *snapshotModel) (*snapshot.Snapshot, error) {
	snap, err := snapshot.Decode([]byte(m.State))
	if err != nil {
		return nil, err
	}
	if snap.TakenAt.IsZero() && m.TakenAt != "" {
		if t, perr := time.Parse(timeLayout, m.TakenAt); perr == nil {
			snap.TakenAt = t
		}
	}
	return snap, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
