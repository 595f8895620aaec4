package repository

import (
    "context"
    "database/sql"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cementerio-ledger/internal/model"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() {
        assert.NoError(t, mock.ExpectationsWereMet())
        _ = db.Close()
    })
    return NewStore(db), mock
}

var reservationCols = []string{
    "id", "cliente_id", "nombres_familiar", "apellidos_familiar",
    "precio_id", "estado_pago", "created_at", "sector", "precio", "cedula",
}

func TestListPrices(t *testing.T) {
    s, mock := newMock(t)
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, sector, precio FROM precios ORDER BY precio ASC, id ASC`)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "sector", "precio"}).
            AddRow(3, "Sector C", "80.00").
            AddRow(1, "Sector A", "1200.00"))

    prices, err := s.ListPrices(context.Background())
    require.NoError(t, err)
    require.Len(t, prices, 2)
    assert.Equal(t, "Sector C", prices[0].SectorName)
    assert.True(t, decimal.RequireFromString("1200").Equal(prices[1].UnitPrice))
}

func TestGetPriceNotFound(t *testing.T) {
    s, mock := newMock(t)
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, sector, precio FROM precios WHERE id = ?`)).
        WithArgs(uint64(9)).
        WillReturnError(sql.ErrNoRows)

    _, err := s.GetPrice(context.Background(), 9)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateClientDuplicate(t *testing.T) {
    s, mock := newMock(t)
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO clientes`)).
        WithArgs("Ana", "Pérez", "1803985504", "ana@example.com", sqlmock.AnyArg()).
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

    c := model.Client{GivenNames: "Ana", Surnames: "Pérez", NationalID: "1803985504", Email: " Ana@Example.com "}
    err := s.CreateClient(context.Background(), &c)
    assert.ErrorIs(t, err, ErrDuplicate)
    assert.Zero(t, c.ID)
}

func TestCreateReservationUnknownReference(t *testing.T) {
    s, mock := newMock(t)
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO reservas`)).
        WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row: a foreign key constraint fails"})

    r := model.Reservation{ClientID: 7, PriceID: 99, FamilyGivenNames: "Rosa", FamilySurnames: "Mora"}
    err := s.CreateReservation(context.Background(), &r)
    assert.ErrorIs(t, err, ErrNotFound)
    assert.Zero(t, r.ID)
}

func TestCreateClient(t *testing.T) {
    s, mock := newMock(t)
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO clientes`)).
        WithArgs("Ana", "Pérez", "1803985504", "", sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(12, 1))

    c := model.Client{GivenNames: "Ana", Surnames: "Pérez", NationalID: "1803985504"}
    require.NoError(t, s.CreateClient(context.Background(), &c))
    assert.Equal(t, uint64(12), c.ID)
    assert.False(t, c.CreatedAt.IsZero())
}

func TestLockReservationUsesForUpdateInTx(t *testing.T) {
    s, mock := newMock(t)
    now := time.Now().UTC()

    mock.ExpectBegin()
    mock.ExpectQuery(`WHERE r\.id = \? FOR UPDATE OF r`).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows(reservationCols).
            AddRow(5, 2, "Rosa", "Mora", 1, "Partial", now, "Sector A", "200.00", "1803985504"))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE reservas SET estado_pago = ? WHERE id = ?`)).
        WithArgs("Paid", uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    err := s.InTx(context.Background(), func(tx Repository) error {
        res, err := tx.LockReservation(context.Background(), 5)
        if err != nil {
            return err
        }
        assert.Equal(t, model.StatePartial, res.State)
        assert.Equal(t, "Sector A", res.SectorName)
        assert.Equal(t, "1803985504", res.ClientNationalID)
        return tx.UpdateReservationState(context.Background(), 5, model.StatePaid)
    })
    require.NoError(t, err)
}

func TestLockReservationOutsideTxDoesNotLock(t *testing.T) {
    s, mock := newMock(t)
    mock.ExpectQuery(`WHERE r\.id = \?$`).
        WithArgs(uint64(5)).
        WillReturnError(sql.ErrNoRows)

    _, err := s.LockReservation(context.Background(), 5)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestInTxRollsBackOnError(t *testing.T) {
    s, mock := newMock(t)
    boom := errors.New("boom")

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pagos`)).
        WithArgs(uint64(5), decimal.RequireFromString("80.00"), sqlmock.AnyArg(), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectRollback()

    err := s.InTx(context.Background(), func(tx Repository) error {
        p := model.PaymentEvent{ReservationID: 5, Amount: decimal.RequireFromString("80.00")}
        if err := tx.CreatePayment(context.Background(), &p); err != nil {
            return err
        }
        return boom
    })
    assert.ErrorIs(t, err, boom)
}

func TestSumPayments(t *testing.T) {
    s, mock := newMock(t)
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(monto), 0) FROM pagos WHERE reserva_id = ?`)).
        WithArgs(uint64(5)).
        WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("200.00"))

    total, err := s.SumPayments(context.Background(), 5)
    require.NoError(t, err)
    assert.True(t, decimal.RequireFromString("200").Equal(total))
}

func TestListReservationsByNationalID(t *testing.T) {
    s, mock := newMock(t)
    now := time.Now().UTC()
    mock.ExpectQuery(`WHERE c\.cedula = \? ORDER BY r\.created_at DESC, r\.id DESC`).
        WithArgs("1803985504").
        WillReturnRows(sqlmock.NewRows(reservationCols).
            AddRow(8, 2, "Juan", "Mora", 1, "Pending", now, "Sector A", "200.00", "1803985504").
            AddRow(5, 2, "Rosa", "Mora", 1, "Cancelled", now.Add(-time.Hour), "Sector A", "200.00", "1803985504"))

    rs, err := s.ListReservationsByNationalID(context.Background(), " 1803985504 ")
    require.NoError(t, err)
    require.Len(t, rs, 2)
    assert.Equal(t, uint64(8), rs[0].ID)
    assert.Equal(t, model.StateCancelled, rs[1].State)
}

func TestSearchReservationsEscapesWildcards(t *testing.T) {
    s, mock := newMock(t)
    mock.ExpectQuery(`LIKE \?`).
        WithArgs(`%50\%\_off%`).
        WillReturnRows(sqlmock.NewRows(reservationCols))

    rs, err := s.SearchReservationsByFamilyName(context.Background(), "50%_OFF")
    require.NoError(t, err)
    assert.Empty(t, rs)
}

func TestMarkMessageRead(t *testing.T) {
    t.Run("already read", func(t *testing.T) {
        s, mock := newMock(t)
        mock.ExpectExec(regexp.QuoteMeta(`UPDATE mensajes SET leido = TRUE WHERE id = ?`)).
            WithArgs(uint64(4)).
            WillReturnResult(sqlmock.NewResult(0, 0))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM mensajes WHERE id = ?`)).
            WithArgs(uint64(4)).
            WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
        assert.NoError(t, s.MarkMessageRead(context.Background(), 4))
    })
    t.Run("unknown id", func(t *testing.T) {
        s, mock := newMock(t)
        mock.ExpectExec(regexp.QuoteMeta(`UPDATE mensajes SET leido = TRUE WHERE id = ?`)).
            WithArgs(uint64(4)).
            WillReturnResult(sqlmock.NewResult(0, 0))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM mensajes WHERE id = ?`)).
            WithArgs(uint64(4)).
            WillReturnError(sql.ErrNoRows)
        assert.ErrorIs(t, s.MarkMessageRead(context.Background(), 4), ErrNotFound)
    })
}

func TestTranslate(t *testing.T) {
    assert.NoError(t, translate(nil))
    assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)
    assert.ErrorIs(t, translate(&mysql.MySQLError{Number: 1062}), ErrDuplicate)
    assert.ErrorIs(t, translate(&mysql.MySQLError{Number: 1452}), ErrNotFound)
    other := &mysql.MySQLError{Number: 1213}
    assert.Equal(t, error(other), translate(other))
}
