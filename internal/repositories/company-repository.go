package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"bip-api/internal/entities"
	apperrors "bip-api/pkg/errors"
)

const companyTable = "companies"

var companySelectFields = []string{
	"id", "name", "inn", "invite_token", "phone", "email", "bitrix_company_id", "balance", "creator_id", "created_at",
}

type CompanyRepositoryInterface interface {
	FindCompanyByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Company, error)
	FindCompanyByInviteToken(ctx context.Context, token string) (*entities.Company, error)
	ExistsByINN(ctx context.Context, inn string) (bool, error)
	ExistsByInviteToken(ctx context.Context, tx pgx.Tx, token string) (bool, error)
	CreateCompany(ctx context.Context, tx pgx.Tx, company *entities.Company) (uint64, error)
	UpdateBitrixCompanyID(ctx context.Context, tx pgx.Tx, companyID uint64, bitrixID int64) error
}

type CompanyRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCompanyRepository(storage *pgxpool.Pool, logger *zap.Logger) CompanyRepositoryInterface {
	return &CompanyRepository{storage: storage, logger: logger}
}

func scanCompany(row pgx.Row) (*entities.Company, error) {
	var c entities.Company
	err := row.Scan(&c.ID, &c.Name, &c.INN, &c.InviteToken, &c.Phone, &c.Email,
		&c.BitrixCompanyID, &c.Balance, &c.CreatorID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования company: %w", err)
	}
	return &c, nil
}

func (r *CompanyRepository) FindCompanyByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Company, error) {
	query, args, err := psql.Select(companySelectFields...).From(companyTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	return scanCompany(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *CompanyRepository) FindCompanyByInviteToken(ctx context.Context, token string) (*entities.Company, error) {
	query, args, err := psql.Select(companySelectFields...).From(companyTable).Where(sq.Eq{"invite_token": token}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	return scanCompany(r.storage.QueryRow(ctx, query, args...))
}

func (r *CompanyRepository) ExistsByINN(ctx context.Context, inn string) (bool, error) {
	return r.exists(ctx, nil, sq.Eq{"inn": inn})
}

func (r *CompanyRepository) ExistsByInviteToken(ctx context.Context, tx pgx.Tx, token string) (bool, error) {
	return r.exists(ctx, tx, sq.Eq{"invite_token": token})
}

func (r *CompanyRepository) exists(ctx context.Context, tx pgx.Tx, where sq.Eq) (bool, error) {
	query, args, err := psql.Select("1").From(companyTable).Where(where).
		Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	var exists bool
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, apperrors.NewStoreError("Ошибка проверки компании", err)
	}
	return exists, nil
}

func (r *CompanyRepository) CreateCompany(ctx context.Context, tx pgx.Tx, company *entities.Company) (uint64, error) {
	query, args, err := psql.Insert(companyTable).
		Columns("name", "inn", "invite_token", "phone", "email", "bitrix_company_id", "creator_id").
		Values(company.Name, company.INN, company.InviteToken, company.Phone, company.Email,
			company.BitrixCompanyID, company.CreatorID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapWriteError(err, "создание компании")
	}
	return id, nil
}

func (r *CompanyRepository) UpdateBitrixCompanyID(ctx context.Context, tx pgx.Tx, companyID uint64, bitrixID int64) error {
	query, args, err := psql.Update(companyTable).Set("bitrix_company_id", bitrixID).Where(sq.Eq{"id": companyID}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса: %w", err)
	}
	result, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "обновление bitrix_company_id")
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrCompanyNotFound
	}
	return nil
}
