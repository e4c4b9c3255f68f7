package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/localnerve/recordsdb/internal/collection"
	"github.com/localnerve/recordsdb/internal/models"
	"github.com/localnerve/recordsdb/internal/store"
	"github.com/localnerve/recordsdb/internal/types"
)

// Store procedures backing the community board.
const (
	ProcIncrementViews = "increment_post_views"
	ProcMarkSolution   = "mark_reply_solution"
	ProcVote           = "vote"
)

// ProcedureTables lists the tables each procedure writes.
var ProcedureTables = map[string][]string{
	ProcIncrementViews: {"community_posts"},
	ProcMarkSolution:   {"community_replies", "community_posts"},
	ProcVote:           {"community_posts", "community_replies"},
}

// RegisterProcedures installs the community procedures on st.
func RegisterProcedures(st *store.Store) {
	st.RegisterProcedure(ProcIncrementViews, incrementViews)
	st.RegisterProcedure(ProcMarkSolution, markSolution)
	st.RegisterProcedure(ProcVote, vote)
}

func first[T models.Record](tx *gorm.DB, id string) (T, error) {
	var rec T
	if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rec, fmt.Errorf("%s %s: %w", rec.TableName(), id, types.ErrNotFound)
		}
		return rec, err
	}
	return rec, nil
}

func incrementViews(ctx context.Context, call *store.Call) (any, error) {
	id, err := call.String("post_id")
	if err != nil {
		return nil, err
	}
	before, err := first[models.CommunityPost](call.Tx, id)
	if err != nil {
		return nil, err
	}
	if err := call.Tx.Model(&models.CommunityPost{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		return nil, err
	}
	after, err := first[models.CommunityPost](call.Tx, id)
	if err != nil {
		return nil, err
	}
	call.Updated(before, after)
	return after, nil
}

func markSolution(ctx context.Context, call *store.Call) (any, error) {
	id, err := call.String("reply_id")
	if err != nil {
		return nil, err
	}
	reply, err := first[models.CommunityReply](call.Tx, id)
	if err != nil {
		return nil, err
	}

	var previous []models.CommunityReply
	if err := call.Tx.
		Where("post_id = ? AND is_solution = ? AND id <> ?", reply.PostID, true, id).
		Find(&previous).Error; err != nil {
		return nil, err
	}
	for _, p := range previous {
		after := p
		after.IsSolution = false
		if err := call.Tx.Model(&after).Update("is_solution", false).Error; err != nil {
			return nil, err
		}
		call.Updated(p, after)
	}

	if !reply.IsSolution {
		after := reply
		after.IsSolution = true
		if err := call.Tx.Model(&after).Update("is_solution", true).Error; err != nil {
			return nil, err
		}
		call.Updated(reply, after)
		reply = after
	}

	post, err := first[models.CommunityPost](call.Tx, reply.PostID)
	if err != nil {
		return nil, err
	}
	if !post.Solved {
		after := post
		after.Solved = true
		if err := call.Tx.Model(&after).Update("solved", true).Error; err != nil {
			return nil, err
		}
		call.Updated(post, after)
	}
	return reply, nil
}

func vote(ctx context.Context, call *store.Call) (any, error) {
	kind, err := call.String("kind")
	if err != nil {
		return nil, err
	}
	id, err := call.String("id")
	if err != nil {
		return nil, err
	}
	delta, err := call.Int("delta")
	if err != nil {
		return nil, err
	}
	if delta != 1 && delta != -1 {
		return nil, types.Validation("delta", "must be 1 or -1")
	}

	switch kind {
	case "post":
		return bump[models.CommunityPost](call, id, delta)
	case "reply":
		return bump[models.CommunityReply](call, id, delta)
	default:
		return nil, types.Validation("kind", "must be post or reply")
	}
}

func bump[T models.Record](call *store.Call, id string, delta int) (T, error) {
	before, err := first[T](call.Tx, id)
	if err != nil {
		return before, err
	}
	var zero T
	if err := call.Tx.Model(&zero).
		Where("id = ?", id).
		UpdateColumn("votes", gorm.Expr("votes + ?", delta)).Error; err != nil {
		return before, err
	}
	after, err := first[T](call.Tx, id)
	if err != nil {
		return before, err
	}
	call.Updated(before, after)
	return after, nil
}

// IncrementViews counts one view of a post.
func IncrementViews(ctx context.Context, hub *collection.Hub, postID string) (models.CommunityPost, error) {
	res, err := hub.RPC(ctx, ProcIncrementViews, map[string]any{"post_id": postID}, models.CommunityPost{}.TableName())
	if err != nil {
		return models.CommunityPost{}, err
	}
	return res.(models.CommunityPost), nil
}

// MarkSolution makes a reply the accepted solution of its post. Any other
// solution of the post is cleared and the post becomes solved.
func MarkSolution(ctx context.Context, hub *collection.Hub, replyID string) (models.CommunityReply, error) {
	res, err := hub.RPC(ctx, ProcMarkSolution, map[string]any{"reply_id": replyID},
		models.CommunityReply{}.TableName(), models.CommunityPost{}.TableName())
	if err != nil {
		return models.CommunityReply{}, err
	}
	return res.(models.CommunityReply), nil
}

// Vote adds delta (1 or -1) to the votes of a post or reply and returns the
// new count.
func Vote(ctx context.Context, hub *collection.Hub, kind, id string, delta int) (int, error) {
	table := models.CommunityPost{}.TableName()
	if kind == "reply" {
		table = models.CommunityReply{}.TableName()
	}
	res, err := hub.RPC(ctx, ProcVote, map[string]any{"kind": kind, "id": id, "delta": delta}, table)
	if err != nil {
		return 0, err
	}
	switch rec := res.(type) {
	case models.CommunityPost:
		return rec.Votes, nil
	case models.CommunityReply:
		return rec.Votes, nil
	}
	return 0, fmt.Errorf("vote: unexpected result %T", res)
}
