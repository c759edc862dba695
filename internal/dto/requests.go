package dto

// RegisterRequest — регистрация пользователя.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRequest — вход по email и паролю.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest — обмен refresh токена на новую пару.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateJobRequest — публикация задания.
type CreateJobRequest struct {
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description" binding:"required"`
	Skills           []string `json:"skills" binding:"required"`
	BudgetCents      int64    `json:"budget_cents" binding:"required"`
	AllowedRevisions int      `json:"allowed_revisions"`
	StakeCents       int64    `json:"stake_cents"`
}

// CreateBidRequest — отклик фрилансера на задание.
type CreateBidRequest struct {
	AmountCents   int64  `json:"amount_cents" binding:"required"`
	Proposal      string `json:"proposal" binding:"required"`
	PayoutAddress string `json:"payout_address" binding:"required"`
}

// SubmitRevisionRequest — сдача работы.
type SubmitRevisionRequest struct {
	ArtifactHash   string  `json:"artifact_hash" binding:"required"`
	ArtifactCommit *string `json:"artifact_commit"`
	Notes          *string `json:"notes"`
}

// RequestRevisionRequest — запрос правки заказчиком.
type RequestRevisionRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// RaiseDisputeRequest — открытие спора.
type RaiseDisputeRequest struct {
	DepositCents int64 `json:"deposit_cents"`
}

// ResolveDisputeRequest — решение арбитра.
type ResolveDisputeRequest struct {
	ClientAmountCents     int64  `json:"client_amount_cents"`
	FreelancerAmountCents int64  `json:"freelancer_amount_cents"`
	ResolutionNotes       string `json:"resolution_notes" binding:"required"`
	ClientPenalized       bool   `json:"client_penalized"`
	StakeSlashed          bool   `json:"stake_slashed"`
}
