package sessionrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

const (
	buntKeyPrefix = "session:"
	sessionTTL    = 8 * time.Hour
)

// BuntRepo stores sessions in buntdb so they survive a relying-party
// restart. Entries expire with the TTL regardless of token lifetime.
type BuntRepo struct {
	db *buntdb.DB
}

func NewBuntRepo(db *buntdb.DB) *BuntRepo {
	return &BuntRepo{db: db}
}

func (r *BuntRepo) Save(_ context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "sessionrepo.BuntRepo.Save marshal")
	}
	err = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(buntKeyPrefix+session.ID, string(data), &buntdb.SetOptions{
			Expires: true,
			TTL:     sessionTTL,
		})
		return err
	})
	return errors.Wrap(err, "sessionrepo.BuntRepo.Save")
}

func (r *BuntRepo) Load(_ context.Context, id string) (*Session, error) {
	var session Session
	err := r.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(buntKeyPrefix + id)
		if err != nil {
			if errors.Is(err, buntdb.ErrNotFound) {
				return ErrSessionNotFound
			}
			return errors.Wrap(err, "sessionrepo.BuntRepo.Load get")
		}
		return errors.Wrap(json.Unmarshal([]byte(raw), &session), "sessionrepo.BuntRepo.Load unmarshal")
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *BuntRepo) Delete(_ context.Context, id string) error {
	err := r.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(buntKeyPrefix + id)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		return err
	})
	return errors.Wrap(err, "sessionrepo.BuntRepo.Delete")
}
