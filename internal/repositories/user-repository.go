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
	"bip-api/pkg/constants"
	apperrors "bip-api/pkg/errors"
)

const userTable = "users"

var userSelectFields = []string{
	"id", "login", "password", "user_type", "role", "first_name", "second_name", "last_name",
	"birthdate", "phone", "email", "position", "contact_id", "company_id", "department_id",
	"balance", "created_at",
}

type UserRepositoryInterface interface {
	FindUserByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*entities.User, error)
	ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error)
	CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error)
	UpdateUserLinks(ctx context.Context, tx pgx.Tx, userID uint64, links entities.UserLinks) error
	GetCompanyEmployees(ctx context.Context, companyID uint64) ([]entities.User, error)
	CountCompanyEmployees(ctx context.Context, companyID uint64) (uint64, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID, &user.Login, &user.Password, &user.UserType, &user.Role,
		&user.FirstName, &user.SecondName, &user.LastName, &user.Birthdate,
		&user.Phone, &user.Email, &user.Position, &user.ContactID,
		&user.CompanyID, &user.DepartmentID, &user.Balance, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	query, args, err := psql.Select(userSelectFields...).From(userTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	return scanUser(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

// FindUserByEmailOrPhone ищет одного пользователя, у которого email или телефон
// совпадает с переданным значением. Пустые значения не участвуют в поиске.
func (r *UserRepository) FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*entities.User, error) {
	or := sq.Or{}
	if email != "" {
		or = append(or, sq.Eq{"email": email})
	}
	if phone != "" {
		or = append(or, sq.Eq{"phone": phone})
	}
	if len(or) == 0 {
		return nil, apperrors.ErrUserNotFound
	}

	query, args, err := psql.Select(userSelectFields...).From(userTable).Where(or).OrderBy("id").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	r.logger.Debug("Поиск пользователя по email/телефону", zap.String("query", query))
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *UserRepository) ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error) {
	query, args, err := psql.Select("1").From(userTable).
		Where(sq.Or{sq.Eq{"phone": phone}, sq.Eq{"email": email}}).
		Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	var exists bool
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, apperrors.NewStoreError("Ошибка проверки пользователя", err)
	}
	return exists, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	query, args, err := psql.Insert(userTable).
		Columns("login", "password", "user_type", "role", "first_name", "second_name", "last_name",
			"birthdate", "phone", "email", "position", "contact_id", "company_id", "department_id").
		Values(user.Login, user.Password, user.UserType, user.Role, user.FirstName, user.SecondName, user.LastName,
			user.Birthdate, user.Phone, user.Email, user.Position, user.ContactID, user.CompanyID, user.DepartmentID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	var id uint64
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapWriteError(err, "создание пользователя")
	}
	return id, nil
}

func (r *UserRepository) UpdateUserLinks(ctx context.Context, tx pgx.Tx, userID uint64, links entities.UserLinks) error {
	if links.IsEmpty() {
		return nil
	}
	builder := psql.Update(userTable).Where(sq.Eq{"id": userID})
	if links.ContactID != nil {
		builder = builder.Set("contact_id", *links.ContactID)
	}
	if links.CompanyID != nil {
		builder = builder.Set("company_id", *links.CompanyID)
	}
	if links.DepartmentID != nil {
		builder = builder.Set("department_id", *links.DepartmentID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса: %w", err)
	}
	result, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "обновление связей пользователя")
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetCompanyEmployees: сначала руководитель, затем сотрудники, затем остальные,
// внутри группы - новые выше.
func (r *UserRepository) GetCompanyEmployees(ctx context.Context, companyID uint64) ([]entities.User, error) {
	query, args, err := psql.Select(userSelectFields...).From(userTable).
		Where(sq.Eq{"company_id": companyID}).
		OrderByClause("CASE role WHEN ? THEN 1 WHEN ? THEN 2 ELSE 3 END", constants.RoleHead, constants.RoleEmployee).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("Ошибка получения сотрудников", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *UserRepository) CountCompanyEmployees(ctx context.Context, companyID uint64) (uint64, error) {
	query, args, err := psql.Select("COUNT(*)").From(userTable).Where(sq.Eq{"company_id": companyID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка построения запроса: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, apperrors.NewStoreError("Ошибка подсчёта сотрудников", err)
	}
	return total, nil
}
