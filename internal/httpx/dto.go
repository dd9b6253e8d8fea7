package httpx

// Request DTOs are validated with go-playground/validator before any
// service is touched.

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

type BranchResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	IsHeadquarter bool   `json:"is_headquarter"`
}

type ProductResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	ImageURL  string `json:"image_url,omitempty"`
}

type BranchStockResponse struct {
	BranchID string         `json:"branch_id"`
	Stock    map[string]int `json:"stock"`
}

type SetBranchRequest struct {
	// Empty clears the selection.
	BranchID string `json:"branch_id"`
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	// Zero or negative removes the line.
	Quantity int `json:"quantity"`
}

type CartLineResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
}

type CartResponse struct {
	Branch      *BranchResponse    `json:"branch,omitempty"`
	Lines       []CartLineResponse `json:"lines"`
	TotalAmount string             `json:"total_amount"`
	TotalItems  int                `json:"total_items"`
}

type SubmitPaymentRequest struct {
	PayerHandle string `json:"payer_handle" validate:"required"`
}

type CheckoutResponse struct {
	State            string `json:"state"`
	OrderID          string `json:"order_id,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`
	Total            string `json:"total,omitempty"`
	Message          string `json:"message,omitempty"`
}

type RestockRequest struct {
	BranchID  string `json:"branch_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type RestockResponse struct {
	BranchName  string `json:"branch_name"`
	ProductName string `json:"product_name"`
	Added       int    `json:"added"`
	NewQuantity int    `json:"new_quantity"`
}

type StockOverviewRowResponse struct {
	BranchID    string `json:"branch_id"`
	BranchName  string `json:"branch_name"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type SalesRowResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitsSold   int    `json:"units_sold"`
	Income      string `json:"income"`
}

type SalesReportResponse struct {
	Rows        []SalesRowResponse `json:"rows"`
	TotalUnits  int                `json:"total_units"`
	TotalIncome string             `json:"total_income"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
