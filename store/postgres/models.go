package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/wallet/snapshot"
)

type snapshotModel struct {
	grove.BaseModel `grove:"table:wallet_snapshots"`

	ID        string          `grove:"id,pk"`
	Version   int64           `grove:"version"`
	Accounts  int             `grove:"accounts"`
	State     json.RawMessage `grove:"state,type:jsonb"`
	TakenAt   time.Time       `grove:"taken_at"`
	CreatedAt time.Time       `grove:"created_at"`
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
		State:     state,
		TakenAt:   s.TakenAt,
		CreatedAt: now(),
	}, nil
}

func fromSnapshotModel(m *snapshotModel) (*snapshot.Snapshot, error) {
	return snapshot.Decode(m.State)
}
