package codes

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

const buntKeyPrefix = "authcode:"

// BuntRepo stores authorization codes in buntdb with a TTL matching the
// code lifetime. Consume deletes inside the write transaction, so a
// second redemption sees the key gone.
type BuntRepo struct {
	db *buntdb.DB
}

func NewBuntRepo(db *buntdb.DB) *BuntRepo {
	return &BuntRepo{db: db}
}

func (r *BuntRepo) Save(_ context.Context, code *AuthorizationCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return errors.Wrap(err, "codes.BuntRepo.Save marshal")
	}
	ttl := time.Until(code.ExpiresAt) + time.Minute
	err = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(buntKeyPrefix+code.Code, string(data), &buntdb.SetOptions{
			Expires: true,
			TTL:     ttl,
		})
		return err
	})
	return errors.Wrap(err, "codes.BuntRepo.Save")
}

func (r *BuntRepo) Consume(_ context.Context, value string) (*AuthorizationCode, error) {
	var code AuthorizationCode
	err := r.db.Update(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(buntKeyPrefix + value)
		if err != nil {
			if errors.Is(err, buntdb.ErrNotFound) {
				return ErrCodeNotFound
			}
			return errors.Wrap(err, "codes.BuntRepo.Consume get")
		}
		if err := json.Unmarshal([]byte(raw), &code); err != nil {
			return errors.Wrap(err, "codes.BuntRepo.Consume unmarshal")
		}
		_, err = tx.Delete(buntKeyPrefix + value)
		return errors.Wrap(err, "codes.BuntRepo.Consume delete")
	})
	if err != nil {
		return nil, err
	}
	return &code, nil
}
