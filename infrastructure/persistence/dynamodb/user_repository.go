package dynamodb

import (
	"context"
	"fmt"
	"time"

	"matflow/application/ports"
	"matflow/domain/core/entities"
	"matflow/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// userItem represents the DynamoDB item structure for an account
type userItem struct {
	PK           string   `dynamodbav:"PK"`
	SK           string   `dynamodbav:"SK"`
	EntityType   string   `dynamodbav:"EntityType"`
	UserID       string   `dynamodbav:"UserID"`
	Name         string   `dynamodbav:"Name"`
	Username     string   `dynamodbav:"Username"`
	Email        string   `dynamodbav:"Email"`
	PasswordHash string   `dynamodbav:"PasswordHash"`
	Roles        []string `dynamodbav:"Roles,stringset,omitempty"`
	Institution  string   `dynamodbav:"Institution"`
	ImageURL     string   `dynamodbav:"ImageURL"`
	CreatedAt    string   `dynamodbav:"CreatedAt"`
	UpdatedAt    string   `dynamodbav:"UpdatedAt"`
}

// guardItem reserves a unique value for one account
type guardItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
}

func (i userItem) toEntity() (*entities.User, error) {
	createdAt, _ := time.Parse(time.RFC3339Nano, i.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	return entities.ReconstructUser(entities.UserSnapshot{
		ID:           i.UserID,
		Name:         i.Name,
		Username:     i.Username,
		Email:        i.Email,
		PasswordHash: i.PasswordHash,
		Roles:        i.Roles,
		Institution:  i.Institution,
		ImageURL:     i.ImageURL,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	})
}

// UserRepository implements ports.UserRepository. Email and username
// uniqueness is held by guard items written in the same transaction as the
// profile.
type UserRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findByGuard(ctx, emailPK(entities.NormalizeEmail(email)))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findByGuard(ctx, usernamePK(username))
}

func (r *UserRepository) FindByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	item, err := r.getProfile(ctx, id.String())
	if err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *UserRepository) findByGuard(ctx context.Context, pk string) (*entities.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       key(pk, guardSK),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get guard item: %w", err)
	}
	if out.Item == nil {
		return nil, ports.ErrUserNotFound
	}
	var guard guardItem
	if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guard item: %w", err)
	}
	item, err := r.getProfile(ctx, guard.UserID)
	if err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *UserRepository) getProfile(ctx context.Context, id string) (*userItem, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            key(userPK(id), profileSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if out.Item == nil {
		return nil, ports.ErrUserNotFound
	}
	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &item, nil
}

// Create writes the profile and both guard items in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	s := user.Snapshot()
	profile, err := attributevalue.MarshalMap(userItem{
		PK:           userPK(s.ID),
		SK:           profileSK,
		EntityType:   entityUser,
		UserID:       s.ID,
		Name:         s.Name,
		Username:     s.Username,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		Roles:        s.Roles,
		Institution:  s.Institution,
		ImageURL:     s.ImageURL,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	emailGuard, err := r.guard(emailPK(s.Email), s.ID)
	if err != nil {
		return err
	}
	usernameGuard, err := r.guard(usernamePK(s.Username), s.ID)
	if err != nil {
		return err
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			r.putIfAbsent(profile),
			r.putIfAbsent(emailGuard),
			r.putIfAbsent(usernameGuard),
		},
	})
	if err != nil {
		if failed, ok := cancelledConditions(err); ok && len(failed) == 3 {
			switch {
			case failed[1]:
				return ports.ErrEmailTaken
			case failed[2]:
				return ports.ErrUsernameTaken
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("User created",
		zap.String("userID", s.ID),
		zap.String("PK", userPK(s.ID)),
	)
	return nil
}

// Delete removes the profile and releases both guards.
func (r *UserRepository) Delete(ctx context.Context, id valueobjects.UserID) error {
	item, err := r.getProfile(ctx, id.String())
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{TableName: aws.String(r.tableName), Key: key(item.PK, profileSK)}},
			{Delete: &types.Delete{TableName: aws.String(r.tableName), Key: key(emailPK(item.Email), guardSK)}},
			{Delete: &types.Delete{TableName: aws.String(r.tableName), Key: key(usernamePK(item.Username), guardSK)}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateName(ctx context.Context, id valueobjects.UserID, name string) error {
	return r.setAttribute(ctx, id, "Name", name)
}

func (r *UserRepository) UpdateInstitution(ctx context.Context, id valueobjects.UserID, institution string) error {
	return r.setAttribute(ctx, id, "Institution", institution)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id valueobjects.UserID, passwordHash string) error {
	return r.setAttribute(ctx, id, "PasswordHash", passwordHash)
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id valueobjects.UserID, url string) error {
	return r.setAttribute(ctx, id, "ImageURL", url)
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id valueobjects.UserID, username string) error {
	return r.moveGuard(ctx, id, "Username", username, usernamePK, ports.ErrUsernameTaken,
		func(i *userItem) string { return i.Username })
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id valueobjects.UserID, email string) error {
	return r.moveGuard(ctx, id, "Email", entities.NormalizeEmail(email), emailPK, ports.ErrEmailTaken,
		func(i *userItem) string { return i.Email })
}

func (r *UserRepository) setAttribute(ctx context.Context, id valueobjects.UserID, attr, value string) error {
	update := expression.Set(expression.Name(attr), expression.Value(value)).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key(userPK(id.String()), profileSK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ports.ErrUserNotFound
		}
		return fmt.Errorf("failed to update user %s: %w", attr, err)
	}
	return nil
}

// moveGuard changes a guarded attribute: the new guard is claimed, the old one
// released and the profile updated atomically.
func (r *UserRepository) moveGuard(
	ctx context.Context,
	id valueobjects.UserID,
	attr, value string,
	guardPK func(string) string,
	taken error,
	current func(*userItem) string,
) error {
	item, err := r.getProfile(ctx, id.String())
	if err != nil {
		return err
	}
	old := current(item)
	if old == value {
		return r.setAttribute(ctx, id, attr, value)
	}

	newGuard, err := r.guard(guardPK(value), item.UserID)
	if err != nil {
		return err
	}
	update := expression.Set(expression.Name(attr), expression.Value(value)).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			r.putIfAbsent(newGuard),
			{Delete: &types.Delete{TableName: aws.String(r.tableName), Key: key(guardPK(old), guardSK)}},
			{Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       key(item.PK, profileSK),
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}},
		},
	})
	if err != nil {
		if failed, ok := cancelledConditions(err); ok && len(failed) == 3 {
			switch {
			case failed[0]:
				return taken
			case failed[2]:
				return ports.ErrUserNotFound
			}
		}
		return fmt.Errorf("failed to update user %s: %w", attr, err)
	}
	return nil
}

func (r *UserRepository) guard(pk, userID string) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(guardItem{PK: pk, SK: guardSK, EntityType: entityGuard, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal guard item: %w", err)
	}
	return av, nil
}

func (r *UserRepository) putIfAbsent(item map[string]types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	}
}
