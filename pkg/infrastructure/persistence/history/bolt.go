// Package history persists terminal fix proposals and the audit ledger.
package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/errors"
	"github.com/AnshulRoy28/DeepmindXDevpost/pkg/domain/sentinel"
)

const (
	proposalsBucket  = "proposals"
	signaturesBucket = "signatures"
)

// Filter selects proposals in ListProposals.
type Filter func(sentinel.FixProposal) bool

// WithStatus keeps proposals in any of the given states.
func WithStatus(statuses ...sentinel.FixStatus) Filter {
	return func(p sentinel.FixProposal) bool {
		for _, s := range statuses {
			if p.Status == s {
				return true
			}
		}
		return false
	}
}

// BoltStore is a bbolt-backed history of proposals and signatures.
type BoltStore struct {
	db     *bbolt.DB
	logger zerolog.Logger
}

// NewBoltStore opens (or creates) the store at dbPath.
func NewBoltStore(dbPath string, logger zerolog.Logger) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New(errors.CodeIoError, "persistence", fmt.Sprintf("failed to create directory %s", dir), err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if strings.Contains(err.Error(), "timeout") {
			return nil, errors.New(errors.CodeIoError, "persistence",
				fmt.Sprintf("history file '%s' is locked by another sentinel process; "+
					"set SENTINEL_STORE_PATH to use a different file", dbPath), err)
		}
		return nil, errors.New(errors.CodeIoError, "persistence", "failed to open bolt db", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{proposalsBucket, signaturesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.New(errors.CodeIoError, "persistence", "failed to create history buckets", err)
	}

	return &BoltStore{
		db:     db,
		logger: logger.With().Str("component", "history_store").Str("path", dbPath).Logger(),
	}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SaveProposal stores p, replacing any previous record with the same ID.
func (s *BoltStore) SaveProposal(ctx context.Context, p sentinel.FixProposal) error {
	if p.ID == "" {
		return errors.New(errors.CodeInvalidParameter, "persistence", "proposal id is required", nil)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return errors.New(errors.CodeInternalError, "persistence", "failed to marshal proposal", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(proposalsBucket)).Put([]byte(p.ID), data)
	})
	if err != nil {
		return errors.New(errors.CodeIoError, "persistence", "failed to store proposal", err)
	}

	s.logger.Debug().Str("fix_id", p.ID).Str("status", string(p.Status)).Msg("Proposal saved")
	return nil
}

// GetProposal retrieves a proposal by ID.
func (s *BoltStore) GetProposal(ctx context.Context, id string) (sentinel.FixProposal, error) {
	var p sentinel.FixProposal
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(proposalsBucket)).Get([]byte(id))
		if data == nil {
			return errors.New(errors.CodeNotFound, "persistence", fmt.Sprintf("proposal %s not found", id), nil)
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return errors.New(errors.CodeInternalError, "persistence", "failed to unmarshal proposal", err)
		}
		return nil
	})
	if err != nil {
		return sentinel.FixProposal{}, err
	}
	return p, nil
}

// ListProposals returns stored proposals ordered by creation time.
func (s *BoltStore) ListProposals(ctx context.Context, filters ...Filter) ([]sentinel.FixProposal, error) {
	proposals := []sentinel.FixProposal{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(proposalsBucket)).ForEach(func(k, v []byte) error {
			var p sentinel.FixProposal
			if err := json.Unmarshal(v, &p); err != nil {
				s.logger.Warn().Err(err).Str("fix_id", string(k)).Msg("Skipping unreadable proposal")
				return nil
			}
			for _, filter := range filters {
				if !filter(p) {
					return nil
				}
			}
			proposals = append(proposals, p)
			return nil
		})
	})
	if err != nil {
		return nil, errors.New(errors.CodeIoError, "persistence", "failed to list proposals", err)
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].CreatedAt.Before(proposals[j].CreatedAt)
	})
	return proposals, nil
}

// AppendSignature adds sig to the persisted ledger. Records are keyed by a
// bucket sequence so they list in append order.
func (s *BoltStore) AppendSignature(sig sentinel.ThoughtSignature) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return errors.New(errors.CodeInternalError, "persistence", "failed to marshal signature", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(signaturesBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return bucket.Put(seqKey(seq), data)
	})
	if err != nil {
		return errors.New(errors.CodeIoError, "persistence", "failed to store signature", err)
	}
	return nil
}

// ListSignatures returns every persisted signature in append order.
func (s *BoltStore) ListSignatures(ctx context.Context) ([]sentinel.ThoughtSignature, error) {
	sigs := []sentinel.ThoughtSignature{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(signaturesBucket)).ForEach(func(k, v []byte) error {
			var sig sentinel.ThoughtSignature
			if err := json.Unmarshal(v, &sig); err != nil {
				s.logger.Warn().Err(err).Uint64("seq", seqFromKey(k)).Msg("Skipping unreadable signature")
				return nil
			}
			sigs = append(sigs, sig)
			return nil
		})
	})
	if err != nil {
		return nil, errors.New(errors.CodeIoError, "persistence", "failed to list signatures", err)
	}
	return sigs, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func seqFromKey(k []byte) uint64 {
	if len(k) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(k)
}
