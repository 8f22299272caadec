package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-flight-reservation/internal/api"
	"github.com/sanosuguru/go-flight-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/payment"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/ticket"
)

const dateLayout = "2006-01-02"

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type PassengerRequest struct {
	Name        string `json:"name" validate:"required,max=100" example:"Asha Rao"`
	NationalID  string `json:"national_id" validate:"required,max=32" example:"1234-5678-9012"`
	Nationality string `json:"nationality" validate:"max=64" example:"Indian"`
	Address     string `json:"address" validate:"max=255" example:"Bengaluru"`
	Gender      string `json:"gender" validate:"max=16" example:"F"`
}

type BookFlightRequest struct {
	FlightCode    string           `json:"flight_code" validate:"required" example:"AI100"`
	TravelDate    string           `json:"travel_date" validate:"required,datetime=2006-01-02" example:"2026-12-24"`
	FareClass     string           `json:"fare_class" example:"economy"`
	Passenger     PassengerRequest `json:"passenger" validate:"required"`
	Amount        decimal.Decimal  `json:"amount" swaggertype:"string" example:"5000.00"`
	PaymentMethod string           `json:"payment_method" validate:"max=32" example:"card"`
}

type BookFlightResponse struct {
	Locator string `json:"locator" example:"AB12CD"`
}

type BookingSummaryResponse struct {
	Locator     string     `json:"locator" example:"AB12CD"`
	FlightCode  string     `json:"flight_code" example:"AI100"`
	TravelDate  string     `json:"travel_date" example:"2026-12-24"`
	FareClass   string     `json:"fare_class" example:"economy"`
	Status      string     `json:"status" example:"confirmed"`
	BookedAt    time.Time  `json:"booked_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type PassengerResponse struct {
	Name        string `json:"name"`
	NationalID  string `json:"national_id"`
	Nationality string `json:"nationality,omitempty"`
	Address     string `json:"address,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

type TicketResponse struct {
	Status      string            `json:"status" example:"issued"`
	FlightName  string            `json:"flight_name" example:"Air India 100"`
	Source      string            `json:"source" example:"DEL"`
	Destination string            `json:"destination" example:"BOM"`
	Passenger   PassengerResponse `json:"passenger"`
}

type PaymentResponse struct {
	ID           int64      `json:"id"`
	Amount       string     `json:"amount" example:"5000"`
	Method       string     `json:"method" example:"card"`
	Status       string     `json:"status" example:"completed"`
	TransactedAt time.Time  `json:"transacted_at"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
}

type BookingDetailResponse struct {
	BookingSummaryResponse
	Ticket    TicketResponse    `json:"ticket"`
	Payments  []PaymentResponse `json:"payments"`
	TotalPaid string            `json:"total_paid" example:"5000"`
}

type CancelBookingResponse struct {
	Locator string `json:"locator" example:"AB12CD"`
	Status  string `json:"status" example:"cancelled"`
}

func toBookingSummaryResponse(r *reservation.Reservation) BookingSummaryResponse {
	return BookingSummaryResponse{
		Locator: r.Locator, FlightCode: r.FlightCode,
		TravelDate: r.TravelDate.Format(dateLayout), FareClass: string(r.FareClass),
		Status: string(r.Status), BookedAt: r.BookedAt, CancelledAt: r.CancelledAt,
	}
}

func toTicketResponse(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		Status:      string(t.Status),
		FlightName:  t.Route.FlightName,
		Source:      t.Route.Source,
		Destination: t.Route.Destination,
		Passenger: PassengerResponse{
			Name: t.Passenger.Name, NationalID: t.Passenger.NationalID,
			Nationality: t.Passenger.Nationality, Address: t.Passenger.Address, Gender: t.Passenger.Gender,
		},
	}
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID: p.ID, Amount: p.Amount.String(), Method: p.Method, Status: string(p.Status),
		TransactedAt: p.TransactedAt, RefundedAt: p.RefundedAt,
	}
}

func toBookingDetailResponse(d *application.BookingDetail) BookingDetailResponse {
	payments := make([]PaymentResponse, len(d.Payments))
	for i, p := range d.Payments {
		payments[i] = toPaymentResponse(p)
	}
	return BookingDetailResponse{
		BookingSummaryResponse: toBookingSummaryResponse(d.Reservation),
		Ticket:                 toTicketResponse(d.Ticket),
		Payments:               payments,
		TotalPaid:              payment.TotalPaid(d.Payments).String(),
	}
}

func requireOwner(c echo.Context) (string, error) {
	owner := middleware.OwnerID(c)
	if owner == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "利用者IDが必要です")
	}
	return owner, nil
}

// Create godoc
// @Summary 航空券を予約
// @Description 空席を1席確保し、搭乗券・予約・支払いを1トランザクションで記録します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string false "利用者ID（JWT未設定時）"
// @Param request body BookFlightRequest true "予約情報"
// @Success 201 {object} BookFlightResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse "便が存在しない"
// @Failure 409 {object} api.ErrorResponse "空席なし"
// @Failure 503 {object} api.ErrorResponse "予約番号の採番に失敗"
// @Failure 504 {object} api.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	owner, err := requireOwner(c)
	if err != nil {
		return err
	}
	var req BookFlightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	travelDate, err := time.Parse(dateLayout, req.TravelDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "搭乗日の形式が不正です")
	}

	locator, err := h.service.BookFlight(c.Request().Context(), application.BookFlightInput{
		OwnerID:    owner,
		FlightCode: req.FlightCode,
		Passenger: ticket.Passenger{
			Name: req.Passenger.Name, NationalID: req.Passenger.NationalID,
			Nationality: req.Passenger.Nationality, Address: req.Passenger.Address, Gender: req.Passenger.Gender,
		},
		TravelDate: travelDate,
		FareClass:  req.FareClass,
		Amount:     req.Amount,
		Method:     req.PaymentMethod,
	})
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, BookFlightResponse{Locator: locator})
}

// List godoc
// @Summary 予約一覧を取得
// @Description 本人の予約を新しい順に取得します
// @Tags bookings
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingSummaryResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	owner, err := requireOwner(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	reservations, err := h.service.ListBookings(c.Request().Context(), owner, limit, offset)
	if err != nil {
		return api.ToHTTPError(err)
	}
	resp := make([]BookingSummaryResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toBookingSummaryResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary 予約詳細を取得
// @Description 本人の予約について搭乗券と支払い履歴を含めて取得します
// @Tags bookings
// @Produce json
// @Param locator path string true "予約番号"
// @Success 200 {object} BookingDetailResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{locator} [get]
func (h *BookingHandler) Get(c echo.Context) error {
	owner, err := requireOwner(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetBooking(c.Request().Context(), owner, c.Param("locator"))
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingDetailResponse(detail))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、支払いを返金済みにして座席を戻します
// @Tags bookings
// @Produce json
// @Param locator path string true "予約番号"
// @Success 200 {object} CancelBookingResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "キャンセル済み"
// @Failure 504 {object} api.ErrorResponse
// @Router /bookings/{locator}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	owner, err := requireOwner(c)
	if err != nil {
		return err
	}
	locator := reservation.NormalizeLocator(c.Param("locator"))
	if err := h.service.CancelBooking(c.Request().Context(), owner, locator); err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, CancelBookingResponse{Locator: locator, Status: string(reservation.StatusCancelled)})
}
