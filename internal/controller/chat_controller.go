package controller

import (
	"github.com/GeorgeShani/Learnyx-sub001/internal/apperror"
	"github.com/GeorgeShani/Learnyx-sub001/internal/dto"
	"github.com/GeorgeShani/Learnyx-sub001/internal/pkg/serverutils"
	"github.com/GeorgeShani/Learnyx-sub001/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetOrCreateConversation(ctx *fiber.Ctx) error
	ListConversations(ctx *fiber.Ctx) error
	DeactivateConversation(ctx *fiber.Ctx) error
	UpdateAssistantPrompt(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	SearchMessages(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("conversation", c.GetOrCreateConversation)
	h.Get("conversations", c.ListConversations)
	h.Delete("conversation/:id", c.DeactivateConversation)
	h.Put("conversation/:id/assistant-prompt", c.UpdateAssistantPrompt)
	h.Get("conversation/:id/messages", c.GetMessages)
	h.Get("messages/search", c.SearchMessages)
}

func (c *chatController) GetOrCreateConversation(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.GetOrCreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.NewValidation("malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.GetOrCreateConversation(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get or create conversation", res))
}

func (c *chatController) ListConversations(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetConversations(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *chatController) DeactivateConversation(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.NewValidation("invalid conversation id")
	}

	if err := c.chatService.DeactivateConversation(ctx.Context(), userId, conversationId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success deactivate conversation", nil))
}

func (c *chatController) UpdateAssistantPrompt(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.NewValidation("invalid conversation id")
	}

	var req dto.UpdateAssistantPromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.NewValidation("malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.chatService.UpdateAssistantPrompt(ctx.Context(), userId, conversationId, req.Prompt); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success update assistant prompt", nil))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.NewValidation("invalid conversation id")
	}

	page := ctx.QueryInt("page", 1)
	pageSize := ctx.QueryInt("page_size", 50)

	res, err := c.chatService.GetMessagesPage(ctx.Context(), userId, conversationId, page, pageSize)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *chatController) SearchMessages(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	req := dto.SearchMessagesRequest{
		Query: ctx.Query("q"),
	}
	if raw := ctx.Query("conversation_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperror.NewValidation("invalid conversation id")
		}
		req.ConversationId = &id
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SearchMessages(ctx.Context(), userId, req.Query, req.ConversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search messages", res))
}

// currentUserId reads the id the JWT middleware stored in locals.
func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return userId, nil
}
