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

const departmentTable = "departments"

var departmentSelectFields = []string{"id", "company_id", "name", "balance", "created_at"}

var ErrDepartmentNotFound = apperrors.NewNotFoundError("Отдел не найден")

type DepartmentRepositoryInterface interface {
	GetDepartmentsByCompany(ctx context.Context, companyID uint64) ([]entities.Department, error)
	FindDepartmentInCompany(ctx context.Context, id, companyID uint64) (*entities.Department, error)
	FindDefaultDepartment(ctx context.Context, tx pgx.Tx, companyID uint64) (*entities.Department, error)
	CreateDepartment(ctx context.Context, tx pgx.Tx, department *entities.Department) (*entities.Department, error)
}

type DepartmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDepartmentRepository(storage *pgxpool.Pool, logger *zap.Logger) DepartmentRepositoryInterface {
	return &DepartmentRepository{storage: storage, logger: logger}
}

func scanDepartment(row pgx.Row) (*entities.Department, error) {
	var d entities.Department
	err := row.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Balance, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDepartmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования department: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) GetDepartmentsByCompany(ctx context.Context, companyID uint64) ([]entities.Department, error) {
	query, args, err := psql.Select(departmentSelectFields...).From(departmentTable).
		Where(sq.Eq{"company_id": companyID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("Ошибка получения отделов", err)
	}
	defer rows.Close()

	departments := make([]entities.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, *d)
	}
	return departments, rows.Err()
}

func (r *DepartmentRepository) FindDepartmentInCompany(ctx context.Context, id, companyID uint64) (*entities.Department, error) {
	query, args, err := psql.Select(departmentSelectFields...).From(departmentTable).
		Where(sq.Eq{"id": id, "company_id": companyID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	return scanDepartment(r.storage.QueryRow(ctx, query, args...))
}

// FindDefaultDepartment - самый первый отдел компании.
func (r *DepartmentRepository) FindDefaultDepartment(ctx context.Context, tx pgx.Tx, companyID uint64) (*entities.Department, error) {
	query, args, err := psql.Select(departmentSelectFields...).From(departmentTable).
		Where(sq.Eq{"company_id": companyID}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	return scanDepartment(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *DepartmentRepository) CreateDepartment(ctx context.Context, tx pgx.Tx, department *entities.Department) (*entities.Department, error) {
	query, args, err := psql.Insert(departmentTable).
		Columns("company_id", "name").
		Values(department.CompanyID, department.Name).
		Suffix("RETURNING id, company_id, name, balance, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	created, err := scanDepartment(pick(r.storage, tx).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err, "создание отдела")
	}
	return created, nil
}
