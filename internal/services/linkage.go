package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bip-api/internal/entities"
	"bip-api/internal/repositories"
	"bip-api/pkg/constants"
)

// Сущности CRM, которые попадают в журнал.
const (
	LinkageEntityContact   = "contact"
	LinkageEntityCompany   = "company"
	LinkageEntityRequisite = "requisite"
	LinkageEntityDeal      = "deal"
)

type LinkageJournalInterface interface {
	Record(ctx context.Context, record entities.LinkageRecord)
	Pending(ctx context.Context, limit int64) ([]entities.LinkageRecord, error)
}

// LinkageJournal хранит сущности CRM, у которых не осталось локальной
// привязки, в списке Redis. Запись всегда дублируется в лог.
type LinkageJournal struct {
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
	now       func() time.Time
}

func NewLinkageJournal(cacheRepo repositories.CacheRepositoryInterface, logger *zap.Logger) *LinkageJournal {
	return &LinkageJournal{
		cacheRepo: cacheRepo,
		logger:    logger.Named("linkage_journal"),
		now:       time.Now,
	}
}

func (j *LinkageJournal) Record(ctx context.Context, record entities.LinkageRecord) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = j.now().UTC()
	}
	logger := j.logger.With(
		zap.String("entity", record.Entity),
		zap.Int64("remote_id", record.RemoteID),
		zap.String("operation", record.Operation),
		zap.String("reason", record.Reason),
	)
	logger.Warn("Сущность CRM осталась без локальной привязки")

	payload, err := json.Marshal(record)
	if err != nil {
		logger.Error("Не удалось сериализовать запись журнала привязок", zap.Error(err))
		return
	}
	if err := j.cacheRepo.RPush(ctx, constants.CacheKeyLinkagePending, string(payload)); err != nil {
		logger.Error("Не удалось сохранить запись журнала привязок в Redis", zap.Error(err))
	}
}

// Pending возвращает первые limit записей. limit <= 0 - все записи.
func (j *LinkageJournal) Pending(ctx context.Context, limit int64) ([]entities.LinkageRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = limit - 1
	}
	raw, err := j.cacheRepo.LRange(ctx, constants.CacheKeyLinkagePending, 0, stop)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала привязок: %w", err)
	}

	records := make([]entities.LinkageRecord, 0, len(raw))
	for _, item := range raw {
		var record entities.LinkageRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			j.logger.Warn("Пропущена повреждённая запись журнала привязок", zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// remoteTrail собирает сущности CRM, созданные внутри одной транзакции.
// Если транзакция откатилась, все они уходят в журнал.
type remoteTrail struct {
	operation string
	created   []entities.LinkageRecord
}

func newRemoteTrail(operation string) *remoteTrail {
	return &remoteTrail{operation: operation}
}

func (t *remoteTrail) add(entity string, remoteID int64) {
	t.created = append(t.created, entities.LinkageRecord{
		Entity:    entity,
		RemoteID:  remoteID,
		Operation: t.operation,
	})
}

func (t *remoteTrail) reset() {
	t.created = t.created[:0]
}

func (t *remoteTrail) flush(ctx context.Context, journal LinkageJournalInterface, cause error) {
	// Отмена запроса часто и есть причина отката, запись в журнал её не учитывает.
	ctx = context.WithoutCancel(ctx)
	for _, record := range t.created {
		record.Reason = cause.Error()
		journal.Record(ctx, record)
	}
	t.reset()
}

// settle завершает операцию: при ошибке все созданные в CRM сущности
// попадают в журнал, ошибка возвращается как есть.
func (t *remoteTrail) settle(ctx context.Context, journal LinkageJournalInterface, logger *zap.Logger, err error) error {
	if err == nil {
		return nil
	}
	orphans := len(t.created)
	t.flush(ctx, journal, err)
	logger.Warn("Операция отменена, транзакция откатена",
		zap.String("operation", t.operation),
		zap.Int("orphaned_remote_entities", orphans),
		zap.Error(err),
	)
	return err
}
