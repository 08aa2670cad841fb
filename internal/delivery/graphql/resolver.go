package graphql

import (
	"context"
	"strconv"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/tsuki42/reddit-clone/internal/application/common"
	"github.com/tsuki42/reddit-clone/internal/application/services"
	"github.com/tsuki42/reddit-clone/internal/application/validation"
	"github.com/tsuki42/reddit-clone/internal/domain/entities"
	"github.com/tsuki42/reddit-clone/internal/infrastructure/session"
)

// Resolver is the GraphQL root. It translates between the wire types and the
// auth workflow, pulling the request session out of the context.
type Resolver struct {
	auth *services.AuthService
}

func NewResolver(auth *services.AuthService) *Resolver {
	return &Resolver{auth: auth}
}

type usernamePasswordInput struct {
	Email    string
	Username string
	Password string
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user, err := r.auth.Me(ctx, session.FromContext(ctx))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &userResolver{user: user}, nil
}

func (r *Resolver) Register(ctx context.Context, args struct{ Options usernamePasswordInput }) (*userResponseResolver, error) {
	result, err := r.auth.Register(ctx, session.FromContext(ctx), validation.RegisterInput{
		Email:    args.Options.Email,
		Username: args.Options.Username,
		Password: args.Options.Password,
	})
	if err != nil {
		return nil, err
	}
	return &userResponseResolver{result: result}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	UsernameOrEmail string
	Password        string
}) (*userResponseResolver, error) {
	result, err := r.auth.Login(ctx, session.FromContext(ctx), args.UsernameOrEmail, args.Password)
	if err != nil {
		return nil, err
	}
	return &userResponseResolver{result: result}, nil
}

func (r *Resolver) Logout(ctx context.Context) bool {
	return r.auth.Logout(ctx, session.FromContext(ctx))
}

func (r *Resolver) ForgotPassword(ctx context.Context, args struct{ Email string }) (bool, error) {
	return r.auth.ForgotPassword(ctx, args.Email)
}

func (r *Resolver) ChangePassword(ctx context.Context, args struct {
	Token       string
	NewPassword string
}) (*userResponseResolver, error) {
	result, err := r.auth.ChangePassword(ctx, session.FromContext(ctx), args.Token, args.NewPassword)
	if err != nil {
		return nil, err
	}
	return &userResponseResolver{result: result}, nil
}

type userResolver struct {
	user *entities.User
}

func (r *userResolver) ID() graphql.ID {
	return graphql.ID(strconv.FormatUint(uint64(r.user.ID), 10))
}

func (r *userResolver) Username() string { return r.user.Username }

func (r *userResolver) Email() string { return r.user.Email }

func (r *userResolver) CreatedAt() string { return r.user.CreatedAt.Format(time.RFC3339) }

func (r *userResolver) UpdatedAt() string { return r.user.UpdatedAt.Format(time.RFC3339) }

type userResponseResolver struct {
	result *common.UserResult
}

func (r *userResponseResolver) User() *userResolver {
	if r.result.User() == nil {
		return nil
	}
	return &userResolver{user: r.result.User()}
}

func (r *userResponseResolver) Errors() *[]*fieldErrorResolver {
	fieldErrs := r.result.Errors()
	if len(fieldErrs) == 0 {
		return nil
	}
	resolvers := make([]*fieldErrorResolver, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		resolvers = append(resolvers, &fieldErrorResolver{err: fe})
	}
	return &resolvers
}

type fieldErrorResolver struct {
	err common.FieldError
}

func (r *fieldErrorResolver) Field() string { return r.err.Field }

func (r *fieldErrorResolver) Message() string { return r.err.Message }
