// Package roulette — service.go координирует открытие кейса от начала до конца.
//
// Порядок шагов Start:
//
//	проверка полей → initData → цена кейса → погашение токена →
//	BEGIN → FOR UPDATE пользователя → проверка баланса → выбор подарка →
//	списание → подарок → история → COMMIT
//
// Любая ошибка после погашения токена откатывает транзакцию и возвращает
// токен в состояние «не использован»: игрок может повторить запрос, пока токен жив.
package roulette

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/gift-roulette/internal/common"
	"serotonyl.ru/gift-roulette/internal/telegram/initdata"
)

// Store — доступ к БД, нужный рулетке.
type Store interface {
	FindUser(ctx context.Context, chatID int64) (*User, error)
	Begin(ctx context.Context) (Tx, error)
}

// Tx — транзакция одной игры. Rollback после Commit ничего не делает.
type Tx interface {
	LockUser(ctx context.Context, chatID int64) (*User, error)
	Debit(ctx context.Context, userID, amount int64) error
	InsertGift(ctx context.Context, userID int64, giftNumber string) (int64, error)
	InsertHistory(ctx context.Context, userID, giftID, price int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// IdentityVerifier превращает initData в проверенного пользователя.
type IdentityVerifier interface {
	Verify(raw string) (*initdata.Identity, error)
}

// Service управляет рулеткой.
type Service struct {
	store    Store
	catalog  *Catalog
	selector *Selector
	tokens   *TokenStore
	verifier IdentityVerifier
	validate *validator.Validate
}

// NewService создаёт сервис рулетки.
func NewService(store Store, catalog *Catalog, selector *Selector, tokens *TokenStore, verifier IdentityVerifier) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		selector: selector,
		tokens:   tokens,
		verifier: verifier,
		validate: validator.New(),
	}
}

// IssueToken выдаёт одноразовый токен пользователю из initData.
// Пользователь должен существовать в БД.
func (s *Service) IssueToken(ctx context.Context, rawInitData string) (string, error) {
	identity, err := s.verifier.Verify(rawInitData)
	if err != nil {
		return "", err
	}

	if _, err := s.store.FindUser(ctx, identity.UserID); err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	token, err := s.tokens.Issue(identity.UserID)
	if err != nil {
		return "", err
	}

	log.WithField("user_id", identity.UserID).Debug("Выдан токен рулетки")
	return token, nil
}

// Start открывает кейс: списывает цену и выдаёт случайный подарок.
func (s *Service) Start(ctx context.Context, req StartRequest, rawInitData string) (*StartResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: caseType и token обязательны", common.ErrValidation)
	}

	identity, err := s.verifier.Verify(rawInitData)
	if err != nil {
		return nil, err
	}

	price, err := s.catalog.Price(req.CaseType)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Redeem(req.Token, identity.UserID); err != nil {
		return nil, err
	}

	result, err := s.play(ctx, identity.UserID, req.CaseType, price)
	if err != nil {
		// Игра не состоялась — токен снова годен для повтора
		s.tokens.Release(req.Token, identity.UserID)
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":        identity.UserID,
		"case":           req.CaseType,
		"price":          price,
		"gift_number":    result.GiftNumber,
		"id_gift_number": result.IDGiftNumber,
	}).Info("Игра записана")

	return result, nil
}

// play выполняет транзакцию игры. Все записи либо фиксируются вместе, либо откатываются.
func (s *Service) play(ctx context.Context, chatID int64, caseType string, price int64) (*StartResult, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}
	// Откатываем транзакцию, если до Commit не дошли
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			log.WithError(err).Warn("Ошибка отката транзакции игры")
		}
	}()

	user, err := tx.LockUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	if user.StarsCount < price {
		return nil, fmt.Errorf("%w: нужно %s, есть %s",
			common.ErrInsufficientBalance, common.FormatStars(price), common.FormatStars(user.StarsCount))
	}

	giftNumber, err := s.selector.Draw(caseType)
	if err != nil {
		return nil, err
	}

	if err := tx.Debit(ctx, user.ID, price); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	giftID, err := tx.InsertGift(ctx, user.ID, giftNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	if err := tx.InsertHistory(ctx, user.ID, giftID, price); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: ошибка фиксации: %w", common.ErrInternal, err)
	}

	return &StartResult{IDGiftNumber: giftID, GiftNumber: giftNumber}, nil
}
