package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/akshaychavan7/ByteExchange/internal/models"
)

// These tests need a real postgres. Point BYTEEXCHANGE_TEST_DATABASE_URL at
// a throwaway database to run them; without it every test skips.
var testSDB *SharedDB

func TestMain(m *testing.M) {
	dbURL := os.Getenv("BYTEEXCHANGE_TEST_DATABASE_URL")
	if dbURL == "" {
		os.Exit(m.Run())
	}
	// Migrations are addressed relative to the repo root.
	if err := os.Chdir("./../.."); err != nil {
		panic(err)
	}
	// Reset database before testing
	if err := MigrateDown(dbURL); err != nil {
		panic(err)
	}
	if err := MigrateUp(dbURL); err != nil {
		panic(err)
	}
	config := &models.EnvConfig{DatabaseURL: dbURL, Debug: true}
	sdb, err := Connect(config, zerolog.Nop())
	if err != nil {
		panic(err)
	}
	testSDB = &sdb

	code := m.Run()
	testSDB.Close()
	os.Exit(code)
}

func testDB(t *testing.T) *SharedDB {
	t.Helper()
	if testSDB == nil {
		t.Skip("BYTEEXCHANGE_TEST_DATABASE_URL not set")
	}
	return testSDB
}

var userSeq int

func registerUser(t *testing.T) (*models.User, models.Identity) {
	t.Helper()
	userSeq++
	user := &models.User{
		Username:  fmt.Sprintf("user%d", userSeq),
		Firstname: "Test",
		Lastname:  "User",
	}
	if err := testSDB.CreateUser(context.Background(), user, "hunter22"); err != nil {
		t.Fatalf("CreateUser(%v) = %v, want nil", user.Username, err)
	}
	return user, models.Identity{UserID: user.ID, Role: user.Role}
}

func askQuestion(t *testing.T, identity models.Identity, tags []string) *models.Question {
	t.Helper()
	question, err := testSDB.CreateQuestion(context.Background(), identity,
		"How do I join three tables?", "I have users, orders and items and need one query.", tags)
	if err != nil {
		t.Fatalf("CreateQuestion() = %v, want nil", err)
	}
	return question
}

func reputationOf(t *testing.T, username string) int {
	t.Helper()
	details, err := testSDB.GetUserDetails(context.Background(), username)
	if err != nil {
		t.Fatalf("GetUserDetails(%s) = %v, want nil", username, err)
	}
	return details.Reputation
}

func TestFirstUserIsModerator(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()

	first, _ := registerUser(t)
	if first.Role != models.RoleModerator {
		t.Fatalf("first user role = %v, want %v", first.Role, models.RoleModerator)
	}
	second, _ := registerUser(t)
	if second.Role != models.RoleGeneral {
		t.Fatalf("second user role = %v, want %v", second.Role, models.RoleGeneral)
	}

	users, err := sdb.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() = %v, want nil", err)
	}
	if len(users) < 2 {
		t.Fatalf("ListUsers() returned %d users, want at least 2", len(users))
	}
}

func TestCreateUserValidation(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()

	err := sdb.CreateUser(ctx, &models.User{Username: "x"}, "hunter22")
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("CreateUser(short name) = %v, want ErrInvalidInput", err)
	}
	err = sdb.CreateUser(ctx, &models.User{Username: "validname"}, "")
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("CreateUser(empty password) = %v, want ErrInvalidInput", err)
	}

	existing, _ := registerUser(t)
	err = sdb.CreateUser(ctx, &models.User{Username: existing.Username}, "hunter22")
	if !errors.Is(err, models.ErrUsernameTaken) {
		t.Fatalf("CreateUser(taken name) = %v, want ErrUsernameTaken", err)
	}
}

func TestLoginSession(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	user, _ := registerUser(t)

	_, err := sdb.Login(ctx, user.Username, "wrong")
	if !errors.Is(err, models.ErrBadCredentials) {
		t.Fatalf("Login(wrong password) = %v, want ErrBadCredentials", err)
	}
	_, err = sdb.Login(ctx, "nobody-here", "hunter22")
	if !errors.Is(err, models.ErrBadCredentials) {
		t.Fatalf("Login(unknown user) = %v, want ErrBadCredentials", err)
	}

	token, err := sdb.Login(ctx, user.Username, "hunter22")
	if err != nil {
		t.Fatalf("Login() = %v, want nil", err)
	}
	identity, err := sdb.IdentityFromToken(ctx, token)
	if err != nil || identity.UserID != user.ID {
		t.Fatalf("IdentityFromToken() = %v, %v, want user %d", identity, err, user.ID)
	}

	if err := sdb.Signout(ctx, token); err != nil {
		t.Fatalf("Signout() = %v, want nil", err)
	}
	_, err = sdb.IdentityFromToken(ctx, token)
	if !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("IdentityFromToken(after signout) = %v, want ErrUnauthorized", err)
	}
}

func TestQuestionTags(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	_, identity := registerUser(t)

	question := askQuestion(t, identity, []string{"Go", "go", "SQL"})
	detail, err := sdb.GetQuestionDetail(ctx, question.ID, nil)
	if err != nil {
		t.Fatalf("GetQuestionDetail() = %v, want nil", err)
	}
	if len(detail.Tags) != 2 {
		t.Fatalf("tags = %v, want the two distinct lowercased tags", detail.Tags)
	}
	for _, tag := range detail.Tags {
		if tag.Name != "go" && tag.Name != "sql" {
			t.Fatalf("unexpected tag %q", tag.Name)
		}
	}

	_, err = sdb.CreateQuestion(ctx, identity, "Too many tags", "body",
		[]string{"a1", "a2", "a3", "a4", "a5", "a6"})
	if !errors.Is(err, models.ErrTooManyTags) {
		t.Fatalf("CreateQuestion(6 tags) = %v, want ErrTooManyTags", err)
	}
}

func TestQuestionValidation(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	_, identity := registerUser(t)

	_, err := sdb.CreateQuestion(ctx, identity, "   ", "body", nil)
	if !errors.Is(err, models.ErrEmptyContent) {
		t.Fatalf("CreateQuestion(blank title) = %v, want ErrEmptyContent", err)
	}
	_, err = sdb.CreateQuestion(ctx, identity, "title", "", nil)
	if !errors.Is(err, models.ErrEmptyContent) {
		t.Fatalf("CreateQuestion(empty body) = %v, want ErrEmptyContent", err)
	}

	long := make([]byte, LimitMaxTitleLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = sdb.CreateQuestion(ctx, identity, string(long), "body", nil)
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("CreateQuestion(oversized title) = %v, want ErrInvalidInput", err)
	}
}

func TestAnswersAndComments(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	_, identity := registerUser(t)
	question := askQuestion(t, identity, nil)

	answer, err := sdb.CreateAnswer(ctx, identity, question.ID, "Use two joins.")
	if err != nil {
		t.Fatalf("CreateAnswer() = %v, want nil", err)
	}
	_, err = sdb.CreateAnswer(ctx, identity, 999999, "orphan")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("CreateAnswer(missing question) = %v, want ErrNotFound", err)
	}

	if _, err := sdb.CreateComment(ctx, identity, models.KindQuestion, question.ID, "clarify?"); err != nil {
		t.Fatalf("CreateComment(on question) = %v, want nil", err)
	}
	if _, err := sdb.CreateComment(ctx, identity, models.KindAnswer, answer.ID, "nice"); err != nil {
		t.Fatalf("CreateComment(on answer) = %v, want nil", err)
	}
	_, err = sdb.CreateComment(ctx, identity, models.KindComment, 1, "nested")
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("CreateComment(on comment) = %v, want ErrInvalidInput", err)
	}
	_, err = sdb.CreateComment(ctx, identity, models.KindAnswer, 999999, "orphan")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("CreateComment(missing answer) = %v, want ErrNotFound", err)
	}

	detail, err := sdb.GetQuestionDetail(ctx, question.ID, nil)
	if err != nil {
		t.Fatalf("GetQuestionDetail() = %v, want nil", err)
	}
	if len(detail.Answers) != 1 || len(detail.Comments) != 1 {
		t.Fatalf("detail has %d answers, %d comments, want 1 and 1",
			len(detail.Answers), len(detail.Comments))
	}
	if len(detail.Answers[0].Comments) != 1 {
		t.Fatalf("answer has %d comments, want 1", len(detail.Answers[0].Comments))
	}
}

func TestVote(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	_, author := registerUser(t)
	voter, voterIdentity := registerUser(t)
	question := askQuestion(t, author, nil)

	res, err := sdb.ApplyVote(ctx, models.KindQuestion, question.ID, voter.ID, models.VoteTypeUpvote)
	if err != nil || !res.Applied || res.Delta != 1 || res.VoteCount != 1 {
		t.Fatalf("first upvote = %+v, %v, want applied delta 1 count 1", res, err)
	}

	// Same direction again changes nothing.
	res, err = sdb.ApplyVote(ctx, models.KindQuestion, question.ID, voter.ID, models.VoteTypeUpvote)
	if err != nil || res.Applied || res.VoteCount != 1 {
		t.Fatalf("repeat upvote = %+v, %v, want not applied, count unchanged", res, err)
	}

	// Switching direction moves the count by two.
	res, err = sdb.ApplyVote(ctx, models.KindQuestion, question.ID, voter.ID, models.VoteTypeDownvote)
	if err != nil || !res.Applied || res.Delta != -2 || res.VoteCount != -1 {
		t.Fatalf("switch to downvote = %+v, %v, want delta -2 count -1", res, err)
	}

	_, err = sdb.ApplyVote(ctx, models.KindQuestion, 999999, voter.ID, models.VoteTypeUpvote)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("vote on missing question = %v, want ErrNotFound", err)
	}

	detail, err := sdb.GetQuestionDetail(ctx, question.ID, &voterIdentity)
	if err != nil {
		t.Fatalf("GetQuestionDetail() = %v, want nil", err)
	}
	if detail.Upvote || !detail.Downvote {
		t.Fatalf("caller flags = up %v down %v, want only down", detail.Upvote, detail.Downvote)
	}
}

func TestReputation(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	author, authorIdentity := registerUser(t)
	voter, _ := registerUser(t)
	question := askQuestion(t, authorIdentity, nil)

	// A fresh author sits at zero; a downvote cannot push them negative.
	if _, err := sdb.ApplyVote(ctx, models.KindQuestion, question.ID, voter.ID, models.VoteTypeDownvote); err != nil {
		t.Fatalf("downvote = %v, want nil", err)
	}
	if got := reputationOf(t, author.Username); got != 0 {
		t.Fatalf("reputation after downvote at floor = %d, want 0", got)
	}

	if _, err := sdb.ApplyVote(ctx, models.KindQuestion, question.ID, voter.ID, models.VoteTypeUpvote); err != nil {
		t.Fatalf("upvote = %v, want nil", err)
	}
	if got := reputationOf(t, author.Username); got != 10 {
		t.Fatalf("reputation after upvote = %d, want 10", got)
	}
}

func TestViewsIncrement(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	_, identity := registerUser(t)
	question := askQuestion(t, identity, nil)

	first, err := sdb.GetQuestionDetail(ctx, question.ID, nil)
	if err != nil {
		t.Fatalf("GetQuestionDetail() = %v, want nil", err)
	}
	second, err := sdb.GetQuestionDetail(ctx, question.ID, nil)
	if err != nil {
		t.Fatalf("GetQuestionDetail() = %v, want nil", err)
	}
	if second.Views != first.Views+1 {
		t.Fatalf("views went %d -> %d, want +1", first.Views, second.Views)
	}
}

func TestModeration(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	_, identity := registerUser(t)
	question := askQuestion(t, identity, nil)
	answer, err := sdb.CreateAnswer(ctx, identity, question.ID, "Flag me.")
	if err != nil {
		t.Fatalf("CreateAnswer() = %v, want nil", err)
	}

	if err := sdb.Report(ctx, models.KindAnswer, 999999); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Report(missing) = %v, want ErrNotFound", err)
	}

	if err := sdb.Report(ctx, models.KindAnswer, answer.ID); err != nil {
		t.Fatalf("Report() = %v, want nil", err)
	}
	reported, err := sdb.ListReported(ctx, models.KindAnswer)
	if err != nil {
		t.Fatalf("ListReported() = %v, want nil", err)
	}
	found := false
	for _, item := range reported {
		if item.ID == answer.ID && item.Kind == models.KindAnswer {
			found = true
		}
	}
	if !found {
		t.Fatalf("reported answers %v do not contain %d", reported, answer.ID)
	}

	if err := sdb.Resolve(ctx, models.KindAnswer, answer.ID); err != nil {
		t.Fatalf("Resolve() = %v, want nil", err)
	}
	reported, err = sdb.ListReported(ctx, models.KindAnswer)
	if err != nil {
		t.Fatalf("ListReported() = %v, want nil", err)
	}
	for _, item := range reported {
		if item.ID == answer.ID {
			t.Fatalf("answer %d still reported after resolve", answer.ID)
		}
	}
}

func TestDeleteQuestionCascades(t *testing.T) {
	sdb := testDB(t)
	ctx := context.Background()
	_, identity := registerUser(t)
	voter, _ := registerUser(t)
	question := askQuestion(t, identity, nil)
	answer, err := sdb.CreateAnswer(ctx, identity, question.ID, "Soon gone.")
	if err != nil {
		t.Fatalf("CreateAnswer() = %v, want nil", err)
	}
	if _, err := sdb.ApplyVote(ctx, models.KindAnswer, answer.ID, voter.ID, models.VoteTypeUpvote); err != nil {
		t.Fatalf("ApplyVote() = %v, want nil", err)
	}

	if err := sdb.DeleteContent(ctx, models.KindQuestion, question.ID); err != nil {
		t.Fatalf("DeleteContent() = %v, want nil", err)
	}
	if _, err := sdb.GetQuestionDetail(ctx, question.ID, nil); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("GetQuestionDetail(deleted) = %v, want ErrNotFound", err)
	}

	var votesLeft int
	err = sdb.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM votes WHERE content_kind = $1 AND content_id = $2",
		models.KindAnswer, answer.ID).Scan(&votesLeft)
	if err != nil {
		t.Fatalf("counting votes = %v, want nil", err)
	}
	if votesLeft != 0 {
		t.Fatalf("%d vote rows survived the delete, want 0", votesLeft)
	}

	if err := sdb.DeleteContent(ctx, models.KindQuestion, question.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("DeleteContent(again) = %v, want ErrNotFound", err)
	}
}
