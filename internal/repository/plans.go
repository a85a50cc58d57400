// Package repository is the durable plan store on DynamoDB.
package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"coach-agent/internal/domain"
)

const (
	pkPrefixUser = "USER#"
	skPrefixPlan = "PLAN#"
)

// ErrDuplicatePlan is returned when a plan with the same id already exists.
var ErrDuplicatePlan = errors.New("repository: plan already exists")

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client stores one item per plan under the owning user's partition.
type Client struct {
	api       dynamodbAPI
	tableName string
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func userPK(userID string) string { return pkPrefixUser + userID }
func planSK(planID string) string { return skPrefixPlan + planID }

// Persist writes plan once. Writing an id that already exists fails with
// ErrDuplicatePlan.
func (c *Client) Persist(ctx context.Context, plan domain.PlanRecord) error {
	if plan.Kind() == "" {
		return errors.New("repository: Persist: empty plan record")
	}
	if plan.ID() == "" || plan.UserID() == "" {
		return errors.New("repository: Persist: plan id and user id are required")
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("repository: Persist marshal: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                planItem(plan, data),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: %s", ErrDuplicatePlan, plan.ID())
		}
		return fmt.Errorf("repository: Persist: %w", err)
	}
	return nil
}

// Plan reads one plan. found is false when the user has no such plan.
func (c *Client) Plan(ctx context.Context, userID, planID string) (domain.PlanRecord, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: planSK(planID)},
		},
	})
	if err != nil {
		return domain.PlanRecord{}, false, fmt.Errorf("repository: Plan get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.PlanRecord{}, false, nil
	}
	rec, err := itemToPlan(out.Item)
	if err != nil {
		return domain.PlanRecord{}, false, fmt.Errorf("repository: Plan decode: %w", err)
	}
	return rec, true, nil
}

// Plans lists up to limit of the user's plans, newest first.
func (c *Client) Plans(ctx context.Context, userID string, limit int) ([]domain.PlanRecord, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixPlan},
		},
	}

	// Sort keys order by id, not age, so every page is read before sorting.
	var plans []domain.PlanRecord
	for {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: Plans query: %w", err)
		}
		for _, item := range out.Items {
			rec, err := itemToPlan(item)
			if err != nil {
				return nil, fmt.Errorf("repository: Plans decode: %w", err)
			}
			plans = append(plans, rec)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}

	slices.SortStableFunc(plans, func(a, b domain.PlanRecord) int {
		return cmp.Compare(b.CreatedAt().UnixNano(), a.CreatedAt().UnixNano())
	})
	if limit > 0 && len(plans) > limit {
		plans = plans[:limit]
	}
	return plans, nil
}

func planItem(plan domain.PlanRecord, data []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: userPK(plan.UserID())},
		"SK":        &types.AttributeValueMemberS{Value: planSK(plan.ID())},
		"planId":    &types.AttributeValueMemberS{Value: plan.ID()},
		"userId":    &types.AttributeValueMemberS{Value: plan.UserID()},
		"type":      &types.AttributeValueMemberS{Value: string(plan.Kind())},
		"createdAt": &types.AttributeValueMemberS{Value: plan.CreatedAt().UTC().Format(time.RFC3339)},
		"data":      &types.AttributeValueMemberS{Value: string(data)},
	}
}

func itemToPlan(item map[string]types.AttributeValue) (domain.PlanRecord, error) {
	data, err := strAttr(item, "data")
	if err != nil {
		return domain.PlanRecord{}, err
	}
	var rec domain.PlanRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return domain.PlanRecord{}, fmt.Errorf("repository: unmarshal plan data: %w", err)
	}
	return rec, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
