package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showclinic/clinica-stock/internal/application/dto"
	appstock "github.com/showclinic/clinica-stock/internal/application/stock"
	"github.com/showclinic/clinica-stock/internal/domain"
	"github.com/showclinic/clinica-stock/internal/domain/entity"
	"github.com/showclinic/clinica-stock/internal/domain/repository"
	domstock "github.com/showclinic/clinica-stock/internal/domain/stock"
	httpiface "github.com/showclinic/clinica-stock/internal/interfaces/http"
	"github.com/showclinic/clinica-stock/pkg/jwt"
	"github.com/showclinic/clinica-stock/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria para recorrer la API completa (router + auth + handler).
// ──────────────────────────────────────────────────────────────────────────────

type apiStore struct {
	lots     map[string]*entity.StockLot
	headers  map[string]*entity.Movement
	details  []*entity.MovementDetail
	variants map[string]*entity.Variant
}

func (s *apiStore) clone() *apiStore {
	c := &apiStore{
		lots:     make(map[string]*entity.StockLot, len(s.lots)),
		headers:  make(map[string]*entity.Movement, len(s.headers)),
		variants: s.variants,
	}
	for k, v := range s.lots {
		cp := *v
		c.lots[k] = &cp
	}
	for k, v := range s.headers {
		cp := *v
		c.headers[k] = &cp
	}
	c.details = append([]*entity.MovementDetail(nil), s.details...)
	return c
}

type apiLotRepo struct{ s *apiStore }

func (r *apiLotRepo) GetByID(id string) (*entity.StockLot, error)          { return r.s.lots[id], nil }
func (r *apiLotRepo) GetByIDForUpdate(id string) (*entity.StockLot, error) { return r.s.lots[id], nil }

func (r *apiLotRepo) FindAllocatableForUpdate(variantID string) ([]*entity.StockLot, error) {
	var out []*entity.StockLot
	for _, l := range r.s.lots {
		if l.VariantID == variantID && l.Allocatable() && l.QuantityOnHand.GreaterThan(decimal.Zero) {
			out = append(out, l)
		}
	}
	domstock.SortFEFO(out)
	return out, nil
}

func (r *apiLotRepo) FindByKeyForUpdate(variantID, lotCode string, expiry *time.Time, location, condition string) (*entity.StockLot, error) {
	for _, l := range r.s.lots {
		if l.MatchesKey(variantID, lotCode, expiry, location, condition) {
			return l, nil
		}
	}
	return nil, nil
}

func (r *apiLotRepo) Create(lot *entity.StockLot) error {
	r.s.lots[lot.ID] = lot
	return nil
}

func (r *apiLotRepo) UpdateQuantities(lot *entity.StockLot) error {
	if _, ok := r.s.lots[lot.ID]; !ok {
		return domain.ErrLotNotFound
	}
	r.s.lots[lot.ID] = lot
	return nil
}

func (r *apiLotRepo) ListByVariant(variantID string) ([]*entity.StockLot, error) {
	var out []*entity.StockLot
	for _, l := range r.s.lots {
		if l.VariantID == variantID {
			out = append(out, l)
		}
	}
	domstock.SortFEFO(out)
	return out, nil
}

type apiMovRepo struct{ s *apiStore }

func (r *apiMovRepo) CreateHeader(m *entity.Movement) error {
	r.s.headers[m.ID] = m
	return nil
}

func (r *apiMovRepo) CreateDetail(d *entity.MovementDetail) error {
	r.s.details = append(r.s.details, d)
	return nil
}

func (r *apiMovRepo) GetByID(id string) (*entity.Movement, error) { return r.s.headers[id], nil }

func (r *apiMovRepo) ListDetails(movementID string) ([]*entity.MovementDetail, error) {
	var out []*entity.MovementDetail
	for _, d := range r.s.details {
		if d.MovementID == movementID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *apiMovRepo) ListByVariant(variantID string, _, _ *time.Time, _, _ int) ([]*entity.Movement, error) {
	seen := make(map[string]bool)
	var out []*entity.Movement
	for _, d := range r.s.details {
		if d.VariantID == variantID && !seen[d.MovementID] {
			seen[d.MovementID] = true
			out = append(out, r.s.headers[d.MovementID])
		}
	}
	return out, nil
}

func (r *apiMovRepo) ListByLot(lotID string, _, _ *time.Time, _, _ int) ([]*entity.Movement, error) {
	seen := make(map[string]bool)
	var out []*entity.Movement
	for _, d := range r.s.details {
		if d.LotID == lotID && !seen[d.MovementID] {
			seen[d.MovementID] = true
			out = append(out, r.s.headers[d.MovementID])
		}
	}
	return out, nil
}

type apiVariantRepo struct{ s *apiStore }

func (r *apiVariantRepo) GetByID(id string) (*entity.Variant, error) { return r.s.variants[id], nil }

type apiTxRunner struct{ s *apiStore }

func (r *apiTxRunner) Run(_ context.Context, fn func(
	repository.StockLotRepository,
	repository.MovementRepository,
	repository.VariantRepository,
) error) error {
	snapshot := r.s.clone()
	if err := fn(&apiLotRepo{r.s}, &apiMovRepo{r.s}, &apiVariantRepo{r.s}); err != nil {
		*r.s = *snapshot
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Montaje de la app
// ──────────────────────────────────────────────────────────────────────────────

const apiVariantID = "00000000-0000-0000-0000-0000000000bb"

func newTestAPI(t *testing.T) (*fiber.App, *apiStore, string) {
	t.Helper()
	store := &apiStore{
		lots:     make(map[string]*entity.StockLot),
		headers:  make(map[string]*entity.Movement),
		variants: make(map[string]*entity.Variant),
	}
	store.variants[apiVariantID] = &entity.Variant{
		ID:             apiVariantID,
		SKU:            "BOT-50ML",
		Name:           "Botox 50ml",
		ContentPerUnit: decimal.NewFromInt(1),
	}

	alloc := appstock.NewAllocationUseCase(&apiTxRunner{store})
	queries := appstock.NewStockQueryUseCase(&apiLotRepo{store}, &apiMovRepo{store})
	log := logger.New(logger.Config{Env: "production", Level: "error"})

	app := fiber.New()
	httpiface.Router(app, httpiface.RouterDeps{
		Allocation: alloc,
		Queries:    queries,
		Log:        log,
		JWTSecret:  testSecret,
	})

	token, err := jwt.Generate(testSecret, "operador-1", "clinica-stock", 15)
	require.NoError(t, err)
	return app, store, token
}

func seedAPILot(store *apiStore, id, expiry string, onHand float64) {
	l := &entity.StockLot{
		ID:             id,
		VariantID:      apiVariantID,
		QuantityOnHand: decimal.NewFromFloat(onHand),
		Status:         entity.LotStatusAvailable,
	}
	if expiry != "" {
		d, _ := time.Parse("2006-01-02", expiry)
		l.ExpiryDate = &d
	}
	store.lots[id] = l
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// ──────────────────────────────────────────────────────────────────────────────
// Casos
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_SinTokenRechazado(t *testing.T) {
	app, _, _ := newTestAPI(t)

	status, _ := doJSON(t, app, "POST", "/api/stock/reserve", "", dto.ReserveRequest{
		VariantID: apiVariantID, Quantity: decimal.NewFromInt(1),
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAPI_ReserveDevuelveDesglose(t *testing.T) {
	app, store, token := newTestAPI(t)
	seedAPILot(store, "L1", "2025-01-10", 5)
	seedAPILot(store, "L2", "", 10)

	status, raw := doJSON(t, app, "POST", "/api/stock/reserve", token, dto.ReserveRequest{
		VariantID: apiVariantID, Quantity: decimal.NewFromInt(7),
	})
	require.Equal(t, fiber.StatusCreated, status, string(raw))

	var out dto.AllocationResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Allocations, 2)
	assert.Equal(t, "L1", out.Allocations[0].LotID)
	assert.True(t, out.Allocations[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "L2", out.Allocations[1].LotID)
	assert.True(t, out.Allocations[1].Quantity.Equal(decimal.NewFromInt(2)))

	assert.Equal(t, "operador-1", store.headers[out.MovementID].CreatedBy)
}

func TestAPI_StockInsuficienteDevuelve409(t *testing.T) {
	app, store, token := newTestAPI(t)
	seedAPILot(store, "L1", "2025-01-10", 5)

	status, raw := doJSON(t, app, "POST", "/api/stock/consume", token, dto.ConsumeRequest{
		VariantID: apiVariantID, Quantity: decimal.NewFromInt(9),
	})
	require.Equal(t, fiber.StatusConflict, status)

	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "INSUFFICIENT_STOCK", out.Code)
	assert.Equal(t, "9", out.Requested)
	assert.Equal(t, "5", out.Available)
}

func TestAPI_CantidadInvalidaDevuelve400(t *testing.T) {
	app, _, token := newTestAPI(t)

	status, raw := doJSON(t, app, "POST", "/api/stock/reserve", token, dto.ReserveRequest{
		VariantID: apiVariantID, Quantity: decimal.NewFromInt(-1),
	})
	require.Equal(t, fiber.StatusBadRequest, status)

	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "INVALID_QUANTITY", out.Code)
}

func TestAPI_LoteDirigidoInexistenteDevuelve404(t *testing.T) {
	app, _, token := newTestAPI(t)

	status, raw := doJSON(t, app, "POST", "/api/stock/consume", token, dto.ConsumeRequest{
		VariantID: apiVariantID, Quantity: decimal.NewFromInt(1), LotID: "no-existe",
	})
	require.Equal(t, fiber.StatusNotFound, status)

	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "LOT_NOT_FOUND", out.Code)
}

func TestAPI_ReceiveYConsultaDeMovimiento(t *testing.T) {
	app, _, token := newTestAPI(t)
	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	status, raw := doJSON(t, app, "POST", "/api/stock/receive", token, dto.ReceiveRequest{
		Lines: []dto.ReceiveLineRequest{
			{VariantID: apiVariantID, LotCode: "B-77", ExpiryDate: &exp, Quantity: decimal.NewFromInt(40)},
			{VariantID: "desconocida", Quantity: decimal.NewFromInt(5)},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, string(raw))

	var received dto.ReceiveResponse
	require.NoError(t, json.Unmarshal(raw, &received))
	require.Len(t, received.Lines, 2)
	assert.True(t, received.Lines[0].Applied)
	assert.False(t, received.Lines[1].Applied)
	require.NotEmpty(t, received.MovementID)

	status, raw = doJSON(t, app, "GET", "/api/stock/movements/"+received.MovementID, token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var mov dto.MovementWithDetailsResponse
	require.NoError(t, json.Unmarshal(raw, &mov))
	assert.Equal(t, entity.MovementTypeEntrada, mov.Type)
	require.Len(t, mov.Details, 1)
	assert.True(t, mov.Details[0].Quantity.Equal(decimal.NewFromInt(40)))
}

func TestAPI_MovimientoInexistenteDevuelve404(t *testing.T) {
	app, _, token := newTestAPI(t)

	status, raw := doJSON(t, app, "GET", "/api/stock/movements/00000000-0000-0000-0000-00000000dead", token, nil)
	require.Equal(t, fiber.StatusNotFound, status)

	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "NOT_FOUND", out.Code)
}

func TestAPI_ListadoDeLotesEnOrdenFEFO(t *testing.T) {
	app, store, token := newTestAPI(t)
	seedAPILot(store, "L-tarde", "2026-06-01", 10)
	seedAPILot(store, "L-pronto", "2025-02-01", 10)
	seedAPILot(store, "L-sin-fecha", "", 10)

	status, raw := doJSON(t, app, "GET", "/api/stock/lots?variant_id="+apiVariantID, token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var out []dto.StockLotResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out, 3)
	assert.Equal(t, "L-pronto", out[0].ID)
	assert.Equal(t, "L-tarde", out[1].ID)
	assert.Equal(t, "L-sin-fecha", out[2].ID)
}
