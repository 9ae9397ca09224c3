package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/wallet/snapshot"
)

// snapshotModel stores the encoded state as a string; BSON has no unsigned
// 64-bit integer, so balances stay in their JSON form.
type snapshotModel struct {
	grove.BaseModel `grove:"table:wallet_snapshots"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Version   int64     `grove:"version"    bson:"version"`
	Accounts  int       `grove:"accounts"   bson:"accounts"`
	State     string    `grove:"state"      bson:"state"`
	TakenAt   time.Time `grove:"taken_at"   bson:"taken_at"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
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
		TakenAt:   s.TakenAt.UTC(),
		CreatedAt: now(),
	}, nil
}

func fromSnapshotModel(m *snapshotModel) (*snapshot.Snapshot, error) {
	return snapshot.Decode([]byte(m.State))
}
