package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

var branchColumns = []string{
	"id", "branch_id", "branch_name", "latitude", "longitude",
	"address", "phone", "fax", "toll", "it_phone", "timezone",
	"departments_json", "ctime", "mtime",
}

// BranchRepo stores branches with their departments and contacts. The
// department tree is read and written as one unit, so it lives in a JSON
// column instead of child tables.
type BranchRepo struct {
	db *sql.DB
}

func NewBranchRepo(db *sql.DB) *BranchRepo {
	return &BranchRepo{db: db}
}

func (r *BranchRepo) Create(ctx context.Context, branch *model.Branch) error {
	data, err := branchRow(branch)
	if err != nil {
		return err
	}
	data["id"] = branch.ID
	data["ctime"] = branch.Ctime
	sqlStr, args, err := builder.BuildInsert("branches", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *BranchRepo) Update(ctx context.Context, branch *model.Branch) error {
	update, err := branchRow(branch)
	if err != nil {
		return err
	}
	where := map[string]interface{}{
		"id": branch.ID,
	}
	sqlStr, args, err := builder.BuildUpdate("branches", where, update)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *BranchRepo) GetByID(ctx context.Context, branchID string) (*model.Branch, error) {
	where := map[string]interface{}{
		"id": branchID,
	}
	sqlStr, args, err := builder.BuildSelect("branches", where, branchColumns)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanBranch(rows)
}

func (r *BranchRepo) List(ctx context.Context) ([]model.Branch, error) {
	where := map[string]interface{}{
		"_orderby": "branch_name asc",
	}
	sqlStr, args, err := builder.BuildSelect("branches", where, branchColumns)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	branches := make([]model.Branch, 0)
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, *branch)
	}
	return branches, rows.Err()
}

func (r *BranchRepo) Delete(ctx context.Context, branchID string) error {
	where := map[string]interface{}{
		"id": branchID,
	}
	sqlStr, args, err := builder.BuildDelete("branches", where)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func branchRow(branch *model.Branch) (map[string]interface{}, error) {
	departmentsJSON, err := json.Marshal(branch.Departments)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"branch_id":        branch.BranchID,
		"branch_name":      branch.BranchName,
		"latitude":         branch.Latitude,
		"longitude":        branch.Longitude,
		"address":          branch.Address,
		"phone":            branch.Phone,
		"fax":              branch.Fax,
		"toll":             branch.Toll,
		"it_phone":         branch.ITPhone,
		"timezone":         branch.Timezone,
		"departments_json": string(departmentsJSON),
		"mtime":            branch.Mtime,
	}, nil
}

func scanBranch(rows *sql.Rows) (*model.Branch, error) {
	var branch model.Branch
	var departmentsJSON string
	if err := rows.Scan(
		&branch.ID,
		&branch.BranchID,
		&branch.BranchName,
		&branch.Latitude,
		&branch.Longitude,
		&branch.Address,
		&branch.Phone,
		&branch.Fax,
		&branch.Toll,
		&branch.ITPhone,
		&branch.Timezone,
		&departmentsJSON,
		&branch.Ctime,
		&branch.Mtime,
	); err != nil {
		return nil, err
	}
	branch.Departments = make([]model.Department, 0)
	if departmentsJSON != "" {
		_ = json.Unmarshal([]byte(departmentsJSON), &branch.Departments)
	}
	return &branch, nil
}
