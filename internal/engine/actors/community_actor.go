package actors

import (
	stdctx "context"
	"log"
	"time"

	"marshlink/internal/database"
	"marshlink/internal/models"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types for community operations
type (
	CreateCommunityMsg struct {
		Name        string
		Description string
		CreatorID   primitive.ObjectID
		Rules       []string
	}

	GetCommunityMsg struct {
		Name string
	}

	GetCommunityDetailsMsg struct {
		CommunityID primitive.ObjectID
	}

	ListCommunitiesMsg struct{}

	JoinCommunityMsg struct {
		CommunityID primitive.ObjectID
		UserID      primitive.ObjectID
	}

	LeaveCommunityMsg struct {
		CommunityID primitive.ObjectID
		UserID      primitive.ObjectID
	}

	UpdateCommunityMsg struct {
		CommunityID primitive.ObjectID
		RequesterID primitive.ObjectID
		Description string
		Rules       []string
	}

	DeleteCommunityMsg struct {
		CommunityID primitive.ObjectID
		RequesterID primitive.ObjectID
	}

	GetCommunityMembersMsg struct {
		CommunityID primitive.ObjectID
	}

	GetCountsMsg struct{}
)

// CommunityActor handles all community-related operations
type CommunityActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewCommunityActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &CommunityActor{store: store, metrics: metrics}
}

func (a *CommunityActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("CommunityActor started")

	case *CreateCommunityMsg:
		a.handleCreate(context, msg)

	case *GetCommunityMsg:
		a.handleGetByName(context, msg)

	case *GetCommunityDetailsMsg:
		a.handleGetDetails(context, msg)

	case *ListCommunitiesMsg:
		a.handleList(context)

	case *JoinCommunityMsg:
		a.handleMembership(context, msg.CommunityID, msg.UserID, true)

	case *LeaveCommunityMsg:
		a.handleMembership(context, msg.CommunityID, msg.UserID, false)

	case *UpdateCommunityMsg:
		a.handleUpdate(context, msg)

	case *DeleteCommunityMsg:
		a.handleDelete(context, msg)

	case *GetCommunityMembersMsg:
		a.handleGetMembers(context, msg)

	case *GetCountsMsg:
		a.handleCount(context)
	}
}

func (a *CommunityActor) handleCreate(context actor.Context, msg *CreateCommunityMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.Name == "" {
		context.Respond(utils.NewValidationError("community name is required"))
		return
	}

	if _, err := a.store.GetUser(ctx, msg.CreatorID); err != nil {
		context.Respond(err)
		return
	}

	community := &models.Community{
		ID:          primitive.NewObjectID(),
		Name:        msg.Name,
		Description: msg.Description,
		CreatorID:   msg.CreatorID,
		Moderators:  []primitive.ObjectID{msg.CreatorID},
		Members:     []primitive.ObjectID{msg.CreatorID},
		Rules:       msg.Rules,
		CreatedAt:   time.Now(),
	}

	if err := a.store.CreateCommunity(ctx, community); err != nil {
		context.Respond(err)
		return
	}

	// The creator is a member from the start; mirror that on the user side.
	if err := a.store.UpdateUserCommunities(ctx, msg.CreatorID, community.ID, true); err != nil {
		log.Printf("CommunityActor: failed to record creator membership: %v", err)
	}

	a.metrics.AddOperationLatency("create_community", time.Since(startTime))
	log.Printf("CommunityActor: created community %s", community.ID.Hex())
	context.Respond(community)
}

func (a *CommunityActor) handleGetByName(context actor.Context, msg *GetCommunityMsg) {
	ctx := stdctx.Background()

	community, err := a.store.GetCommunityByName(ctx, msg.Name)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(community)
}

func (a *CommunityActor) handleGetDetails(context actor.Context, msg *GetCommunityDetailsMsg) {
	ctx := stdctx.Background()

	community, err := a.store.GetCommunity(ctx, msg.CommunityID)
	if err != nil {
		context.Respond(err)
		return
	}

	details := struct {
		Community   *models.Community `json:"community"`
		MemberCount int               `json:"memberCount"`
	}{
		Community:   community,
		MemberCount: len(community.Members),
	}
	context.Respond(details)
}

func (a *CommunityActor) handleList(context actor.Context) {
	ctx := stdctx.Background()

	communities, err := a.store.ListCommunities(ctx)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(communities)
}

func (a *CommunityActor) handleUpdate(context actor.Context, msg *UpdateCommunityMsg) {
	ctx := stdctx.Background()

	community, err := a.store.GetCommunity(ctx, msg.CommunityID)
	if err != nil {
		context.Respond(err)
		return
	}
	if !community.IsModerator(msg.RequesterID) {
		context.Respond(utils.NewForbiddenError("only moderators can update the community"))
		return
	}

	if msg.Description != "" {
		community.Description = msg.Description
	}
	if msg.Rules != nil {
		community.Rules = msg.Rules
	}

	if err := a.store.UpdateCommunity(ctx, community); err != nil {
		context.Respond(err)
		return
	}
	context.Respond(community)
}

func (a *CommunityActor) handleDelete(context actor.Context, msg *DeleteCommunityMsg) {
	ctx := stdctx.Background()

	community, err := a.store.GetCommunity(ctx, msg.CommunityID)
	if err != nil {
		context.Respond(err)
		return
	}
	if community.CreatorID != msg.RequesterID {
		context.Respond(utils.NewForbiddenError("only the creator can delete the community"))
		return
	}

	// Drop membership records alongside the community itself.
	err = a.store.RunInTransaction(ctx, func(txCtx stdctx.Context) error {
		for _, memberID := range community.Members {
			if err := a.store.UpdateUserCommunities(txCtx, memberID, community.ID, false); err != nil {
				return err
			}
		}
		return a.store.DeleteCommunity(txCtx, community.ID)
	})
	if err != nil {
		context.Respond(err)
		return
	}

	log.Printf("CommunityActor: deleted community %s", community.ID.Hex())
	context.Respond(&models.StatusResponse{Success: true, Message: "Community deleted"})
}

func (a *CommunityActor) handleMembership(context actor.Context, communityID, userID primitive.ObjectID, join bool) {
	startTime := time.Now()
	ctx := stdctx.Background()

	community, err := a.store.GetCommunity(ctx, communityID)
	if err != nil {
		context.Respond(err)
		return
	}
	if _, err := a.store.GetUser(ctx, userID); err != nil {
		context.Respond(err)
		return
	}

	isMember := false
	for _, m := range community.Members {
		if m == userID {
			isMember = true
			break
		}
	}
	if join && isMember {
		context.Respond(utils.NewAppError(utils.ErrAlreadyCommunityMember, "user is already a member", nil))
		return
	}
	if !join && !isMember {
		context.Respond(utils.NewAppError(utils.ErrNotCommunityMember, "user is not a member", nil))
		return
	}

	// Membership lives on both documents; keep them in step.
	err = a.store.RunInTransaction(ctx, func(txCtx stdctx.Context) error {
		if err := a.store.UpdateCommunityMembership(txCtx, communityID, userID, join); err != nil {
			return err
		}
		return a.store.UpdateUserCommunities(txCtx, userID, communityID, join)
	})
	if err != nil {
		context.Respond(err)
		return
	}

	op := "leave_community"
	if join {
		op = "join_community"
	}
	a.metrics.AddOperationLatency(op, time.Since(startTime))
	context.Respond(&models.StatusResponse{Success: true})
}

func (a *CommunityActor) handleGetMembers(context actor.Context, msg *GetCommunityMembersMsg) {
	ctx := stdctx.Background()

	community, err := a.store.GetCommunity(ctx, msg.CommunityID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(community.Members)
}

func (a *CommunityActor) handleCount(context actor.Context) {
	ctx := stdctx.Background()

	communities, err := a.store.ListCommunities(ctx)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(len(communities))
}
