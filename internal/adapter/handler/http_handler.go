package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joshsssn/marketplace/internal/core/domain"
	"github.com/joshsssn/marketplace/internal/core/service"
)

type HTTPHandler struct {
	auth      *service.AuthService
	users     *service.UserService
	items     *service.ItemService
	purchases *service.PurchaseService
	ratings   *service.RatingService
	log       *zap.SugaredLogger
}

func NewHTTPHandler(
	auth *service.AuthService,
	users *service.UserService,
	items *service.ItemService,
	purchases *service.PurchaseService,
	ratings *service.RatingService,
	log *zap.SugaredLogger,
) *HTTPHandler {
	return &HTTPHandler{
		auth:      auth,
		users:     users,
		items:     items,
		purchases: purchases,
		ratings:   ratings,
		log:       log,
	}
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      string(u.Role),
		Rating:    u.Rating,
		CreatedAt: u.CreatedAt,
	}
}

type itemResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	OwnerID     int64     `json:"owner_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toItemResponse(it *domain.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price,
		OwnerID:     it.OwnerID,
		Status:      string(it.Status),
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

func toItemResponses(items []domain.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	return out
}

type transactionResponse struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	SellerID  int64     `json:"seller_id"`
	BuyerID   int64     `json:"buyer_id"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type ratingResponse struct {
	ID            int64     `json:"id"`
	TransactionID int64     `json:"transaction_id"`
	RaterID       int64     `json:"rater_id"`
	RatedID       int64     `json:"rated_id"`
	Score         int       `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
}

// Login authenticates a form-encoded username/password pair and returns a
// bearer token.
func (h *HTTPHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "username and password are required"})
		return
	}
	token, _, err := h.auth.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (h *HTTPHandler) Register(c *gin.Context) {
	var req struct {
		FullName string `json:"full_name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Username, req.FullName, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *HTTPHandler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(currentUser(c)))
}

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Username *string `json:"username"`
		FullName *string `json:"full_name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.users.Update(c.Request.Context(), currentUser(c), id, service.UserUpdateInput{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *HTTPHandler) CreateItem(c *gin.Context) {
	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	item, err := h.items.Create(c.Request.Context(), currentUser(c), service.ItemCreateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(item))
}

func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Status      *string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	update := domain.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if req.Status != nil {
		status := domain.ItemStatus(*req.Status)
		update.Status = &status
	}
	item, err := h.items.Update(c.Request.Context(), currentUser(c), id, update)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(item))
}

func (h *HTTPHandler) ListItems(c *gin.Context) {
	filter := domain.ItemFilter{Keyword: c.Query("keyword")}

	var parseErr bool
	filter.MinPrice, parseErr = queryFloat(c, "min_price")
	if parseErr {
		return
	}
	filter.MaxPrice, parseErr = queryFloat(c, "max_price")
	if parseErr {
		return
	}
	filter.MinSellerRating, parseErr = queryFloat(c, "min_seller_rating")
	if parseErr {
		return
	}

	items, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponses(items))
}

func (h *HTTPHandler) ItemsBySeller(c *gin.Context) {
	sellerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.items.ListBySeller(c.Request.Context(), currentUser(c), sellerID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponses(items))
}

// Purchase buys an item on behalf of the authenticated user. A buyer_id in
// the body, when present, must match the caller.
func (h *HTTPHandler) Purchase(c *gin.Context) {
	var req struct {
		ItemID  int64  `json:"item_id"`
		BuyerID *int64 `json:"buyer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ItemID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}
	caller := currentUser(c)
	if req.BuyerID != nil && *req.BuyerID != caller.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "buyer_id must match the authenticated user"})
		return
	}
	tx, err := h.purchases.Purchase(c.Request.Context(), caller.ID, req.ItemID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transactionResponse{
		ID:        tx.ID,
		ItemID:    tx.ItemID,
		SellerID:  tx.SellerID,
		BuyerID:   tx.BuyerID,
		Price:     tx.Price,
		CreatedAt: tx.CreatedAt,
	})
}

func (h *HTTPHandler) GetTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.purchases.GetTransaction(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionResponse{
		ID:        tx.ID,
		ItemID:    tx.ItemID,
		SellerID:  tx.SellerID,
		BuyerID:   tx.BuyerID,
		Price:     tx.Price,
		CreatedAt: tx.CreatedAt,
	})
}

func (h *HTTPHandler) Rate(c *gin.Context) {
	var req struct {
		TransactionID int64 `json:"transaction_id"`
		Score         int   `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TransactionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction_id and score are required"})
		return
	}
	rating, err := h.ratings.Rate(c.Request.Context(), currentUser(c).ID, req.TransactionID, req.Score)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ratingResponse{
		ID:            rating.ID,
		TransactionID: rating.TransactionID,
		RaterID:       rating.RaterID,
		RatedID:       rating.RatedID,
		Score:         rating.Score,
		CreatedAt:     rating.CreatedAt,
	})
}

func (h *HTTPHandler) SuggestPrice(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	price, sampleSize, err := h.items.SuggestPrice(c.Request.Context(), req.Title)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggested_price": price, "sample_size": sampleSize})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Errorw("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, true
	}
	return &v, false
}
