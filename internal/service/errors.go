package service

import (
	"errors"

	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-backend/internal/repository"
	"github.com/ignatzorin/escrow-backend/internal/repository/common"
)

// mapRepoError переводит ошибки слоя хранилища в ошибки приложения.
// Проигрыш compare-and-set и дубликат записи наружу выглядят одинаково:
// конфликт с текстом, объясняющим, какой переход не состоялся.
func mapRepoError(err error, conflictMsg string) error {
	switch {
	case errors.Is(err, common.ErrStaleStatus), errors.Is(err, common.ErrAlreadyExists):
		return apperror.New(apperror.ErrCodeConflict, conflictMsg)
	case errors.Is(err, repository.ErrJobNotFound):
		return apperror.ErrJobNotFound
	case errors.Is(err, repository.ErrBidNotFound):
		return apperror.ErrBidNotFound
	case errors.Is(err, repository.ErrDisputeNotFound):
		return apperror.ErrDisputeNotFound
	case errors.Is(err, repository.ErrSettlementNotFound):
		return apperror.ErrSettlementNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	}
	return err
}
