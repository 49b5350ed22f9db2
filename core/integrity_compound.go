package core

import "github.com/smarty/deliver/contracts"

type CompoundIntegrityCheck struct {
	inners []contracts.IntegrityCheck
}

func NewCompoundIntegrityCheck(inners ...contracts.IntegrityCheck) *CompoundIntegrityCheck {
	return &CompoundIntegrityCheck{inners: inners}
}

func (this *CompoundIntegrityCheck) Verify(file contracts.File, localPath string) error {
	for _, inner := range this.inners {
		err := inner.Verify(file, localPath)
		if err != nil {
			return err
		}
	}
	return nil
}
