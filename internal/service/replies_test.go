package service

import (
	"context"
	"testing"

	"github.com/pribylovaa/webthreads/internal/events"
	"github.com/pribylovaa/webthreads/internal/replytree"
	"github.com/stretchr/testify/require"
)

func TestService_AddReply_Nested(t *testing.T) {
	t.Parallel()
	s, rec := newMemoryService(t)
	ctx := context.Background()
	c := mustCreate(t, s, alice)

	c, err := s.AddReply(ctx, AddReplyInput{CommentID: c.ID, Text: "d1", User: bob})
	require.NoError(t, err)
	d1 := c.Replies[0].ID

	c, err = s.AddReply(ctx, AddReplyInput{CommentID: c.ID, ParentReplyID: d1, Text: "d2", User: alice})
	require.NoError(t, err)
	d2 := c.Replies[0].Replies[0].ID

	c, err = s.AddReply(ctx, AddReplyInput{CommentID: c.ID, ParentReplyID: d2, Text: "d3", User: bob})
	require.NoError(t, err)

	require.Equal(t, 3, replytree.Count(c.Replies))
	d3 := c.Replies[0].Replies[0].Replies[0]
	require.Equal(t, "d3", d3.Text)
	require.Equal(t, bob, d3.User)
	require.NotNil(t, d3.Replies)
	require.NotNil(t, d3.LikedBy)

	found, ok := replytree.Find(c.Replies, d3.ID)
	require.True(t, ok)
	require.Equal(t, d3, *found)

	require.Equal(t, []events.Type{
		events.CommentCreated, events.ReplyCreated, events.ReplyCreated, events.ReplyCreated,
	}, rec.types())
}

func TestService_AddReply_Errors(t *testing.T) {
	t.Parallel()
	s, _ := newMemoryService(t)
	ctx := context.Background()
	c := mustCreate(t, s, alice)

	_, err := s.AddReply(ctx, AddReplyInput{CommentID: c.ID, ParentReplyID: "ghost", Text: "x", User: bob})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddReply(ctx, AddReplyInput{CommentID: "ghost", Text: "x", User: bob})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddReply(ctx, AddReplyInput{CommentID: c.ID, Text: " ", User: bob})
	require.ErrorIs(t, err, ErrInvalidArgument)

	got, err := s.CommentByID(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, got.Replies)
}

func TestService_EditReply(t *testing.T) {
	t.Parallel()
	s, _ := newMemoryService(t)
	ctx := context.Background()
	c := mustCreate(t, s, alice)

	c, err := s.AddReply(ctx, AddReplyInput{CommentID: c.ID, Text: "top", User: alice})
	require.NoError(t, err)
	c, err = s.AddReply(ctx, AddReplyInput{CommentID: c.ID, ParentReplyID: c.Replies[0].ID, Text: "deep", User: bob})
	require.NoError(t, err)
	deep := c.Replies[0].Replies[0]

	out, err := s.EditReply(ctx, EditReplyInput{CommentID: c.ID, ReplyID: deep.ID, Text: "deeper", RequesterEmail: "b@x"})
	require.NoError(t, err)
	require.Equal(t, "deeper", out.Replies[0].Replies[0].Text)
	require.Equal(t, "top", out.Replies[0].Text)
	require.Equal(t, "hi", out.Text)
}

// TestService_DeleteReply_DropsSubtree — удаление родителя делает внука недостижимым.
func TestService_DeleteReply_DropsSubtree(t *testing.T) {
	t.Parallel()
	s, _ := newMemoryService(t)
	ctx := context.Background()
	c := mustCreate(t, s, alice)

	c, err := s.AddReply(ctx, AddReplyInput{CommentID: c.ID, Text: "parent", User: bob})
	require.NoError(t, err)
	parent := c.Replies[0].ID

	c, err = s.AddReply(ctx, AddReplyInput{CommentID: c.ID, Text: "sibling", User: alice})
	require.NoError(t, err)

	c, err = s.AddReply(ctx, AddReplyInput{CommentID: c.ID, ParentReplyID: parent, Text: "grandchild", User: alice})
	require.NoError(t, err)
	grandchild := c.Replies[0].Replies[0].ID

	out, err := s.DeleteReply(ctx, c.ID, parent, "b@x")
	require.NoError(t, err)

	_, ok := replytree.Find(out.Replies, grandchild)
	require.False(t, ok)
	_, ok = replytree.Find(out.Replies, parent)
	require.False(t, ok)
	require.Len(t, out.Replies, 1)
	require.Equal(t, "sibling", out.Replies[0].Text)

	_, err = s.DeleteReply(ctx, c.ID, parent, "b@x")
	require.ErrorIs(t, err, ErrNotFound)
}
