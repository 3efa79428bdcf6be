package profiles

import "context"

type Repository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByUserName(ctx context.Context, userName string) (*Profile, error)
	UserNameExists(ctx context.Context, userName string) (bool, error)
	UpdateUserName(ctx context.Context, id, userName string) error
	UpdateFullName(ctx context.Context, id, fullName string) error
	UpdateEmail(ctx context.Context, id, email string) error
	Delete(ctx context.Context, id string) error
}
