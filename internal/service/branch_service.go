package service

import (
	"context"
	"strings"
	"time"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
	"github.com/agdesk/agdesk/internal/repo"
)

const (
	RoleDemo = "demo"

	maskedValue = "***-***-****"
)

// BranchService manages dealership branch records. Reads are open to every
// role; demo accounts get contact details masked out.
type BranchService struct {
	branches *repo.BranchRepo
}

func NewBranchService(branches *repo.BranchRepo) *BranchService {
	return &BranchService{branches: branches}
}

func (s *BranchService) Create(ctx context.Context, branch *model.Branch) (*model.Branch, error) {
	if strings.TrimSpace(branch.BranchName) == "" {
		return nil, appErr.ErrInvalid
	}
	now := time.Now().Unix()
	branch.ID = newID()
	branch.Ctime = now
	branch.Mtime = now
	fillNestedIDs(branch)
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, err
	}
	return branch, nil
}

func (s *BranchService) Update(ctx context.Context, branch *model.Branch) (*model.Branch, error) {
	if branch.ID == "" || strings.TrimSpace(branch.BranchName) == "" {
		return nil, appErr.ErrInvalid
	}
	branch.Mtime = time.Now().Unix()
	fillNestedIDs(branch)
	if err := s.branches.Update(ctx, branch); err != nil {
		return nil, err
	}
	return s.branches.GetByID(ctx, branch.ID)
}

func (s *BranchService) Get(ctx context.Context, role, branchID string) (*model.Branch, error) {
	branch, err := s.branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if role == RoleDemo {
		maskBranch(branch)
	}
	return branch, nil
}

func (s *BranchService) List(ctx context.Context, role string) ([]model.Branch, error) {
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, err
	}
	if role == RoleDemo {
		for i := range branches {
			maskBranch(&branches[i])
		}
	}
	return branches, nil
}

func (s *BranchService) Delete(ctx context.Context, branchID string) error {
	return s.branches.Delete(ctx, branchID)
}

func fillNestedIDs(branch *model.Branch) {
	for i := range branch.Departments {
		dept := &branch.Departments[i]
		if dept.ID == "" {
			dept.ID = newID()
		}
		dept.BranchID = branch.ID
		for j := range dept.Contacts {
			contact := &dept.Contacts[j]
			if contact.ID == "" {
				contact.ID = newID()
			}
			contact.DepartmentID = dept.ID
		}
	}
}

// maskBranch hides anything a demo account could use to contact real staff.
func maskBranch(branch *model.Branch) {
	if branch.Phone != "" {
		branch.Phone = maskedValue
	}
	if branch.Fax != "" {
		branch.Fax = maskedValue
	}
	if branch.Toll != "" {
		branch.Toll = maskedValue
	}
	if branch.ITPhone != "" {
		branch.ITPhone = maskedValue
	}
	for i := range branch.Departments {
		for j := range branch.Departments[i].Contacts {
			contact := &branch.Departments[i].Contacts[j]
			if contact.Phone != "" {
				contact.Phone = maskedValue
			}
			if contact.Email != "" {
				contact.Email = maskedValue
			}
			if contact.Name != "" {
				contact.Name = "***"
			}
		}
	}
}
