package services

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/recordsdb/data"
	"github.com/localnerve/recordsdb/internal/auth"
	"github.com/localnerve/recordsdb/internal/changefeed"
	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/config"
	"github.com/localnerve/recordsdb/internal/derive"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/notify"
	"github.com/localnerve/recordsdb/internal/store"
	"github.com/localnerve/recordsdb/internal/testutil"
	"github.com/localnerve/recordsdb/internal/types"
)

type env struct {
	feed  *changefeed.Local
	store *store.Store
	hub   *collection.Hub
	notes *notify.Recorder
}

func newEnv(t *testing.T, opts ...collection.Option) *env {
	t.Helper()
	e := &env{feed: changefeed.NewLocal(), notes: &notify.Recorder{}}
	e.store = store.New(testutil.OpenDB(t), e.feed, nil, nil)
	RegisterProcedures(e.store)
	e.hub = collection.NewHub(e.store, append([]collection.Option{collection.WithNotifier(e.notes)}, opts...)...)
	t.Cleanup(e.hub.Close)
	return e
}

func insert[T models.Record](t *testing.T, e *env, rec T) T {
	t.Helper()
	out, err := store.Insert(testutil.UserContext(), e.store, rec)
	require.NoError(t, err)
	return out
}

func TestListStorageHighUtilization(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.UserContext()

	locs := collection.New[models.StorageLocation](e.hub)
	_, err := locs.Create(ctx, models.StorageLocation{OrganizationID: "org-1", Name: "Sala 1", CapacityPercentage: 85})
	require.NoError(t, err)

	views, err := ListStorage(ctx, e.hub, "org-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "85%", views[0].CapacityLabel)
	assert.Equal(t, derive.UtilizationHigh, views[0].Utilization)
	assert.Equal(t, models.StorageActive, views[0].Status)
}

func TestListTeamByStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	end := "2024-12-31"
	insert(t, e, models.TeamMember{OrganizationID: "org-1", Name: "Ana"})
	insert(t, e, models.TeamMember{OrganizationID: "org-1", Name: "Bruno", EndDate: &end})

	all, err := ListTeam(ctx, e.hub, "org-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := ListTeam(ctx, e.hub, "org-1", derive.MemberActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Ana", active[0].Name)

	inactive, err := ListTeam(ctx, e.hub, "org-1", derive.MemberInactive)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "Bruno", inactive[0].Name)

	_, err = ListTeam(ctx, e.hub, "org-1", "afastado")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestMoveTaskUpdatesDashboard(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.UserContext()
	insert(t, e, models.Task{OrganizationID: "org-1", Title: "em curso", ColumnID: models.ColumnInProgress})

	task, err := collection.New[models.Task](e.hub).Create(ctx, models.Task{OrganizationID: "org-1", Title: "digitalizar caixas"})
	require.NoError(t, err)
	assert.Equal(t, models.ColumnTodo, task.ColumnID)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, testutil.TestUser.ID, task.CreatedBy)

	before, err := TaskDashboard(ctx, e.hub, "org-1", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, before.Labels[derive.LabelTodo])
	assert.Equal(t, 0, before.Labels[derive.LabelDone])
	assert.Equal(t, 1, before.Labels[derive.LabelInProgress])

	moved, err := MoveTask(ctx, e.hub, task.ID, models.ColumnDone)
	require.NoError(t, err)
	assert.Equal(t, models.ColumnDone, moved.ColumnID)

	after, err := TaskDashboard(ctx, e.hub, "org-1", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, before.Labels[derive.LabelDone]+1, after.Labels[derive.LabelDone])
	assert.Equal(t, before.Labels[derive.LabelInProgress], after.Labels[derive.LabelInProgress])
	assert.Equal(t, 0, after.Labels[derive.LabelTodo])
	assert.Len(t, after.Columns[models.ColumnDone], 1)
	assert.Empty(t, after.Columns[models.ColumnReview])
}

func TestMoveTaskRejectsUnknownColumn(t *testing.T) {
	e := newEnv(t)
	task := insert(t, e, models.Task{OrganizationID: "org-1", Title: "t"})

	_, err := MoveTask(context.Background(), e.hub, task.ID, "archived")
	assert.ErrorIs(t, err, types.ErrValidation)
}

type planTree struct {
	plan      models.StrategicPlan
	objective models.PlanObjective
	empty     models.PlanObjective
	auto      models.PlanAction
	manual    models.PlanAction
	scopes    []models.ActionScope
}

func seedPlan(t *testing.T, e *env) planTree {
	t.Helper()
	var p planTree
	p.plan = insert(t, e, models.StrategicPlan{OrganizationID: "org-1", Name: "Plano 2025-2027", Duration: 3})
	p.objective = insert(t, e, models.PlanObjective{PlanID: p.plan.ID, Title: "Digitalizar acervo"})
	p.empty = insert(t, e, models.PlanObjective{PlanID: p.plan.ID, Title: "Capacitar equipe"})
	p.auto = insert(t, e, models.PlanAction{ObjectiveID: p.objective.ID, Title: "Escanear", ProgressType: models.ProgressAutomatic})
	p.manual = insert(t, e, models.PlanAction{ObjectiveID: p.objective.ID, Title: "Contratar", Progress: 100, Status: models.StatusCompleted})
	p.scopes = []models.ActionScope{
		insert(t, e, models.ActionScope{ActionID: p.auto.ID, ScopeItem: models.ScopeItem{ServiceType: "digitalização", TargetQuantity: 100, Unit: "caixas"}}),
		insert(t, e, models.ActionScope{ActionID: p.auto.ID, ScopeItem: models.ScopeItem{ServiceType: "higienização", TargetQuantity: 10, CurrentQuantity: 10, Unit: "metros"}}),
	}
	return p
}

func TestUpdateActionScopeRecalculatesChain(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.UserContext()
	p := seedPlan(t, e)

	scope, err := UpdateActionScope(ctx, e.hub, p.scopes[0].ID, map[string]any{"current_quantity": 50})
	require.NoError(t, err)
	assert.Equal(t, 50.0, scope.CurrentQuantity)

	action, err := store.Get[models.PlanAction](ctx, e.store, p.auto.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, action.Progress)
	assert.Equal(t, models.StatusInProgress, action.Status)

	objective, err := store.Get[models.PlanObjective](ctx, e.store, p.objective.ID)
	require.NoError(t, err)
	assert.Equal(t, 88, objective.Progress)
	assert.Equal(t, models.StatusInProgress, objective.Status)
	assert.False(t, objective.Completed)

	plan, err := store.Get[models.StrategicPlan](ctx, e.store, p.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 44, plan.Progress)
	assert.Equal(t, "draft", plan.Status)
}

func TestUpdateActionScopeCompletesObjective(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.UserContext()
	p := seedPlan(t, e)

	_, err := UpdateActionScope(ctx, e.hub, p.scopes[0].ID, map[string]any{"current_quantity": 140})
	require.NoError(t, err)

	objective, err := store.Get[models.PlanObjective](ctx, e.store, p.objective.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, objective.Progress)
	assert.Equal(t, models.StatusCompleted, objective.Status)
	assert.True(t, objective.Completed)

	plan, err := store.Get[models.StrategicPlan](ctx, e.store, p.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, plan.Progress)
}

func TestUpdateActionScopeRejectsNegative(t *testing.T) {
	e := newEnv(t)
	p := seedPlan(t, e)

	_, err := UpdateActionScope(testutil.UserContext(), e.hub, p.scopes[0].ID, map[string]any{"current_quantity": -1})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, 1, e.notes.Count(notify.Error))
}

func TestRecalculatePlanTree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := seedPlan(t, e)

	plan, err := RecalculatePlanTree(ctx, e.hub, p.plan.ID)
	require.NoError(t, err)
	// scope items at 0% and 100% give the automatic action 50; with the
	// manual action at 100 the objective is 75 and the empty one 0.
	assert.Equal(t, 38, plan.Progress)

	action, err := store.Get[models.PlanAction](ctx, e.store, p.auto.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, action.Progress)

	manual, err := store.Get[models.PlanAction](ctx, e.store, p.manual.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, manual.Progress)

	_, err = RecalculatePlanTree(ctx, e.hub, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateGoalScopeRecalculatesProject(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.UserContext()
	project := insert(t, e, models.Project{OrganizationID: "org-1", Name: "Recuperação do arquivo intermediário"})
	auto := insert(t, e, models.Goal{ProjectID: project.ID, Title: "Classificar", ProgressType: models.ProgressAutomatic})
	insert(t, e, models.Goal{ProjectID: project.ID, Title: "Relatório"})
	scope := insert(t, e, models.GoalScope{GoalID: auto.ID, ScopeItem: models.ScopeItem{ServiceType: "classificação", TargetQuantity: 4}})
	assert.Equal(t, testutil.TestUser.ID, project.CreatedBy)

	_, err := UpdateGoalScope(ctx, e.hub, scope.ID, map[string]any{"current_quantity": 4})
	require.NoError(t, err)

	goal, err := store.Get[models.Goal](ctx, e.store, auto.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, goal.Progress)
	assert.Equal(t, models.StatusCompleted, goal.Status)

	got, err := store.Get[models.Project](ctx, e.store, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Progress)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func seedPost(t *testing.T, e *env) (models.CommunityPost, models.CommunityReply, models.CommunityReply) {
	t.Helper()
	post := insert(t, e, models.CommunityPost{OrganizationID: "org-1", Title: "Prazo de guarda", Content: "Qual o prazo para folhas de ponto?"})
	first := insert(t, e, models.CommunityReply{PostID: post.ID, Content: "7 anos após a aprovação das contas."})
	second := insert(t, e, models.CommunityReply{PostID: post.ID, Content: "Consulte a tabela de temporalidade."})
	return post, first, second
}

func TestMarkSolutionSolvesPost(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.UserContext()
	post, first, second := seedPost(t, e)
	assert.False(t, post.Solved)
	assert.Equal(t, testutil.TestUser.ID, post.UserID)

	reply, err := MarkSolution(ctx, e.hub, first.ID)
	require.NoError(t, err)
	assert.True(t, reply.IsSolution)

	got, err := store.Get[models.CommunityPost](ctx, e.store, post.ID)
	require.NoError(t, err)
	assert.True(t, got.Solved)

	_, err = MarkSolution(ctx, e.hub, second.ID)
	require.NoError(t, err)

	replies, err := store.Select[models.CommunityReply](ctx, e.store, store.Filter{"post_id": post.ID, "is_solution": true})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, second.ID, replies[0].ID)
}

func TestMarkSolutionPublishesChanges(t *testing.T) {
	e := newEnv(t)
	post, first, _ := seedPost(t, e)

	var posts atomic.Int32
	sub, err := e.feed.Subscribe(models.CommunityPost{}.TableName(), "org-1", func(ch changefeed.Change) {
		if ch.RecordID == post.ID && ch.Event == changefeed.Update {
			posts.Add(1)
		}
	})
	require.NoError(t, err)
	defer sub.Close()

	_, err = MarkSolution(testutil.UserContext(), e.hub, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), posts.Load())

	// already solved; no further post change
	_, err = MarkSolution(testutil.UserContext(), e.hub, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), posts.Load())
}

func TestMarkSolutionUnknownReply(t *testing.T) {
	e := newEnv(t)
	_, err := MarkSolution(context.Background(), e.hub, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestIncrementViews(t *testing.T) {
	e := newEnv(t)
	post, _, _ := seedPost(t, e)

	for i := 0; i < 2; i++ {
		_, err := IncrementViews(context.Background(), e.hub, post.ID)
		require.NoError(t, err)
	}
	got, err := IncrementViews(context.Background(), e.hub, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Views)
}

func TestIncrementViewsRequiresUser(t *testing.T) {
	e := newEnv(t, collection.WithRequireUser(true))
	post, _, _ := seedPost(t, e)

	_, err := IncrementViews(context.Background(), e.hub, post.ID)
	assert.ErrorIs(t, err, types.ErrAuthRequired)

	got, err := IncrementViews(auth.WithUser(context.Background(), testutil.TestUser), e.hub, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)
}

func TestVote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post, reply, _ := seedPost(t, e)

	for _, delta := range []int{1, 1, -1} {
		_, err := Vote(ctx, e.hub, "post", post.ID, delta)
		require.NoError(t, err)
	}
	votes, err := Vote(ctx, e.hub, "reply", reply.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)

	got, err := store.Get[models.CommunityPost](ctx, e.store, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)

	_, err = Vote(ctx, e.hub, "post", post.ID, 5)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = Vote(ctx, e.hub, "poll", post.ID, 1)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSeedAndListDocumentTypes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	n, err := SeedDocumentTypes(ctx, e.store, data.DocumentTypes)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = SeedDocumentTypes(ctx, e.store, data.DocumentTypes)
	require.NoError(t, err)
	assert.Zero(t, n)

	permanent, err := ListDocumentTypes(ctx, e.hub, models.DestinationPermanent, "")
	require.NoError(t, err)
	assert.Len(t, permanent, 3)

	personnel, err := ListDocumentTypes(ctx, e.hub, "", "PESSOAL")
	require.NoError(t, err)
	assert.Len(t, personnel, 2)

	byCode, err := ListDocumentTypes(ctx, e.hub, models.DestinationElimination, "033")
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "Aquisição de material", byCode[0].Name)

	_, err = ListDocumentTypes(ctx, e.hub, "Arquivo", "")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = SeedDocumentTypes(ctx, e.store, []byte("{"))
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := testutil.OpenDB(t)
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:", AuthDisabled: true}

	result := HealthCheck(context.Background(), cfg, db, changefeed.NewLocal(), nil)
	assert.True(t, result.Healthy())
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "local", result.Feed)
	assert.Equal(t, "disabled", result.Authorizer)
	assert.Equal(t, "0", result.Details["feed_subscriptions"])

	cfg.AuthDisabled = false
	cfg.AuthzURL = "http://127.0.0.1:1"
	result = HealthCheck(context.Background(), cfg, db, nil, nil)
	assert.False(t, result.Healthy())
	assert.Equal(t, "none", result.Feed)
	assert.Equal(t, "unreachable", result.Authorizer)
	assert.Contains(t, result.ErrorMessage, "Authorizer ping failed")
}

func TestHealthCheckConfiguredFeed(t *testing.T) {
	db := testutil.OpenDB(t)
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:", AuthDisabled: true, NATSURL: "nats://127.0.0.1:1"}

	result := HealthCheck(context.Background(), cfg, db, nil, nil)
	assert.False(t, result.Healthy())
	assert.Equal(t, "unreachable", result.Feed)
	assert.Contains(t, result.ErrorMessage, "Change feed ping failed")

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg.NATSURL = "nats://" + l.Addr().String()
	result = HealthCheck(context.Background(), cfg, db, nil, nil)
	assert.False(t, result.Healthy())
	assert.Equal(t, "disconnected", result.Feed)
}

func TestStaticValidator(t *testing.T) {
	v := StaticValidator{User: testutil.TestUser}

	user, err := v.ValidateSession(context.Background(), "cookie", []string{"user"})
	require.NoError(t, err)
	assert.Equal(t, testutil.TestUser.ID, user.ID)

	_, err = v.ValidateSession(context.Background(), "", []string{"user"})
	assert.Error(t, err)

	_, err = v.ValidateSession(context.Background(), "cookie", []string{"admin"})
	assert.Error(t, err)
}

func TestAuthorizerValidatorRetriesInit(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	v := NewAuthorizerValidator(&config.Config{
		AuthzURL:      "http://" + addr,
		AuthzClientID: "recordsdb",
	}, "", nil)

	_, err = v.ValidateSession(context.Background(), "cookie", []string{"user"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorizer ping failed")
	assert.False(t, v.Initialized())

	l, err = net.Listen("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	assert.True(t, v.Initialized())
}
