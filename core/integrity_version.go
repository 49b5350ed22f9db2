package core

import (
	"errors"
	"fmt"

	"github.com/smarty/deliver/contracts"
)

// VersionIntegrityCheck compares a dependency's version with the version
// recorded when its manifest was last cached.
type VersionIntegrityCheck struct {
	store contracts.ContentStore
}

func NewVersionIntegrityCheck(store contracts.ContentStore) *VersionIntegrityCheck {
	return &VersionIntegrityCheck{store: store}
}

func (this *VersionIntegrityCheck) Verify(dependency contracts.Dependency) error {
	recorded, found, err := this.store.Get(dependency.VersionRecordKey())
	if err != nil {
		return err
	}
	if !found || string(recorded) != dependency.Version {
		return fmt.Errorf("%w: installed [%s], wanted [%s]", errVersionMismatch, recorded, dependency.Version)
	}
	return nil
}

func (this *VersionIntegrityCheck) Record(dependency contracts.Dependency) error {
	return this.store.Put(dependency.VersionRecordKey(), []byte(dependency.Version))
}

var errVersionMismatch = errors.New("version mismatch")
