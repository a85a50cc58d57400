package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"coach-agent/internal/domain"
)

type fakeDynamo struct {
	getOut   *dynamodb.GetItemOutput
	getErr   error
	putErr   error
	pages    []*dynamodb.QueryOutput
	queryErr error

	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
	queryInputs  []*dynamodb.QueryInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	copied := *in
	f.queryInputs = append(f.queryInputs, &copied)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	page := f.pages[len(f.queryInputs)-1]
	return page, nil
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "plans-table")
	require.NoError(t, err)
	return c
}

func nutritionPlan(id string, at time.Time) domain.PlanRecord {
	return domain.PlanRecord{Nutrition: &domain.NutritionPlan{
		ID:            id,
		UserID:        "u1",
		Type:          domain.PlanNutrition,
		Duration:      "7_days",
		CreatedAt:     at,
		DailyCalories: 2200,
	}}
}

func fitnessPlan(id string, at time.Time) domain.PlanRecord {
	return domain.PlanRecord{Fitness: &domain.FitnessPlan{
		ID:           id,
		UserID:       "u1",
		Type:         domain.PlanFitness,
		Duration:     "4_weeks",
		CreatedAt:    at,
		FitnessLevel: domain.FitnessBeginner,
	}}
}

func itemFor(t *testing.T, rec domain.PlanRecord) map[string]types.AttributeValue {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	return planItem(rec, data)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "t")
	require.ErrorContains(t, err, "api must not be nil")
	_, err = New(&fakeDynamo{}, " ")
	require.ErrorContains(t, err, "table name")
}

func TestPersist_WritesConditionalItem(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, c.Persist(context.Background(), nutritionPlan("nutrition_u1_1772359200", at)))

	in := db.lastPutInput
	require.NotNil(t, in)
	require.Equal(t, "plans-table", *in.TableName)
	require.Equal(t, "attribute_not_exists(PK) AND attribute_not_exists(SK)", *in.ConditionExpression)
	require.Equal(t, "USER#u1", in.Item["PK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "PLAN#nutrition_u1_1772359200", in.Item["SK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "nutrition", in.Item["type"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "2026-03-01T10:00:00Z", in.Item["createdAt"].(*types.AttributeValueMemberS).Value)
	require.Contains(t, in.Item["data"].(*types.AttributeValueMemberS).Value, `"daily_calories":2200`)
}

func TestPersist_Duplicate(t *testing.T) {
	db := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{Message: new(string)}}
	c := mustNewClient(t, db)

	err := c.Persist(context.Background(), nutritionPlan("p1", time.Now()))
	require.ErrorIs(t, err, ErrDuplicatePlan)
}

func TestPersist_Errors(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{putErr: errors.New("throttled")})
	err := c.Persist(context.Background(), nutritionPlan("p1", time.Now()))
	require.ErrorContains(t, err, "throttled")
	require.NotErrorIs(t, err, ErrDuplicatePlan)

	err = c.Persist(context.Background(), domain.PlanRecord{})
	require.ErrorContains(t, err, "empty plan record")

	err = c.Persist(context.Background(), nutritionPlan("", time.Now()))
	require.ErrorContains(t, err, "required")
}

func TestPlan_Found(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := fitnessPlan("fitness_u1_1", at)
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: itemFor(t, rec)}}
	c := mustNewClient(t, db)

	got, found, err := c.Plan(context.Background(), "u1", "fitness_u1_1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, domain.PlanFitness, got.Kind())
	require.Equal(t, "fitness_u1_1", got.ID())
	require.True(t, at.Equal(got.CreatedAt()))
	require.Equal(t, "PLAN#fitness_u1_1", db.lastGetInput.Key["SK"].(*types.AttributeValueMemberS).Value)
}

func TestPlan_Missing(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	_, found, err := c.Plan(context.Background(), "u1", "nope")
	require.NoError(t, err)
	require.False(t, found)
}

func TestPlan_Malformed(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"data": &types.AttributeValueMemberS{Value: `{"type":"yoga"}`},
	}}}
	c := mustNewClient(t, db)
	_, _, err := c.Plan(context.Background(), "u1", "p")
	require.ErrorContains(t, err, "Plan decode")
}

func TestPlan_GetItemError(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{getErr: errors.New("boom")})
	_, _, err := c.Plan(context.Background(), "u1", "p")
	require.ErrorContains(t, err, "boom")
}

func TestPlans_ReadsAllPagesNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := fitnessPlan("fitness_u1_a", base)
	newest := nutritionPlan("nutrition_u1_b", base.Add(2*time.Hour))
	middle := fitnessPlan("fitness_u1_c", base.Add(time.Hour))

	db := &fakeDynamo{pages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{itemFor(t, older), itemFor(t, middle)},
			LastEvaluatedKey: map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "USER#u1"}},
		},
		{Items: []map[string]types.AttributeValue{itemFor(t, newest)}},
	}}
	c := mustNewClient(t, db)

	got, err := c.Plans(context.Background(), "u1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "nutrition_u1_b", got[0].ID())
	require.Equal(t, "fitness_u1_c", got[1].ID())

	require.Len(t, db.queryInputs, 2)
	require.Nil(t, db.queryInputs[0].ExclusiveStartKey)
	require.NotNil(t, db.queryInputs[1].ExclusiveStartKey)
	require.Equal(t, "PLAN#", db.queryInputs[0].ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS).Value)
}

func TestPlans_QueryError(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{queryErr: errors.New("boom")})
	_, err := c.Plans(context.Background(), "u1", 5)
	require.ErrorContains(t, err, "Plans query")
}
