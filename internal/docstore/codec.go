package docstore

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forrajeria-backend/pkg/db/models"
	"github.com/angelmondragon/forrajeria-backend/pkg/enums"
)

// Document field names shared with the admin panel.
const (
	fieldNombre        = "nombre"
	fieldApellido      = "apellido"
	fieldCelular       = "celular"
	fieldEmail         = "email"
	fieldPrecio        = "precio"
	fieldStock         = "stock"
	fieldImagen        = "imagen"
	fieldRegistered    = "fechaRegistro"
	fieldActivo        = "activo"
	fieldCliente       = "cliente"
	fieldTelefono      = "telefono"
	fieldProductos     = "productos"
	fieldID            = "id"
	fieldCantidad      = "cantidad"
	fieldSubtotal      = "subtotal"
	fieldFechaRetiro   = "fechaRetiro"
	fieldHoraRetiro    = "horaRetiro"
	fieldFechaHora     = "fechaHoraRetiro"
	fieldComentarios   = "comentarios"
	fieldTotal         = "total"
	fieldTotalItems    = "totalItems"
	fieldFechaPedido   = "fechaPedido"
	fieldEstado        = "estado"
	fieldNumeroPedido  = "numeroPedido"
	fieldActualizacion = "fechaActualizacion"
)

type document map[string]any

func (d document) str(key string) string {
	switch v := d[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (d document) strPtr(key string) *string {
	if v := d.str(key); v != "" {
		return &v
	}
	return nil
}

func (d document) decimal(key string) decimal.Decimal {
	switch v := d[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case string:
		if parsed, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return decimal.Zero
}

// integer follows the leading-integer rule of legacy documents: "12 kg" is 12,
// 7.9 is 7 and anything unparsable is 0.
func (d document) integer(key string) int {
	switch v := d[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case string:
		return leadingInt(v)
	}
	return 0
}

func (d document) time(key string) time.Time {
	if v, ok := d[key].(time.Time); ok {
		return v.UTC()
	}
	return time.Time{}
}

func (d document) boolean(key string, fallback bool) bool {
	if v, ok := d[key].(bool); ok {
		return v
	}
	return fallback
}

func (d document) child(key string) document {
	switch v := d[key].(type) {
	case map[string]any:
		return document(v)
	case document:
		return v
	}
	return document{}
}

func (d document) children(key string) []document {
	raw, ok := d[key].([]any)
	if !ok {
		if typed, ok := d[key].([]map[string]any); ok {
			out := make([]document, 0, len(typed))
			for _, m := range typed {
				out = append(out, document(m))
			}
			return out
		}
		return nil
	}
	out := make([]document, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, document(m))
		}
	}
	return out
}

func leadingInt(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func productFromDoc(id string, data map[string]any) models.Product {
	d := document(data)
	return models.Product{
		ID:     id,
		Nombre: d.str(fieldNombre),
		Precio: d.decimal(fieldPrecio),
		Stock:  d.integer(fieldStock),
		Imagen: d.strPtr(fieldImagen),
	}
}

func customerFromDoc(id string, data map[string]any) models.Customer {
	d := document(data)
	return models.Customer{
		ID:           id,
		Nombre:       d.str(fieldNombre),
		Apellido:     d.str(fieldApellido),
		Celular:      d.str(fieldCelular),
		Email:        d.str(fieldEmail),
		RegisteredAt: d.time(fieldRegistered),
		Active:       d.boolean(fieldActivo, true),
	}
}

func customerToDoc(c models.Customer) map[string]any {
	return map[string]any{
		fieldNombre:     c.Nombre,
		fieldApellido:   c.Apellido,
		fieldCelular:    c.Celular,
		fieldEmail:      c.Email,
		fieldRegistered: c.RegisteredAt,
		fieldActivo:     c.Active,
	}
}

// Money is stored as a float so the admin panel keeps reading plain numbers.
func money(v decimal.Decimal) float64 {
	return v.Round(2).InexactFloat64()
}

func orderToDoc(o models.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, map[string]any{
			fieldID:       li.ProductID,
			fieldNombre:   li.Nombre,
			fieldPrecio:   money(li.Precio),
			fieldCantidad: li.Cantidad,
			fieldSubtotal: money(li.Subtotal),
		})
	}

	doc := map[string]any{
		fieldCliente: map[string]any{
			fieldID:       o.Customer.ID,
			fieldNombre:   o.Customer.Nombre,
			fieldApellido: o.Customer.Apellido,
			fieldTelefono: o.Customer.Celular,
			fieldEmail:    o.Customer.Email,
		},
		fieldProductos:    items,
		fieldFechaRetiro:  o.PickupDate,
		fieldHoraRetiro:   o.PickupTime,
		fieldFechaHora:    o.PickupAt,
		fieldComentarios:  o.Comments,
		fieldTotal:        money(o.Total),
		fieldTotalItems:   o.TotalItems,
		fieldFechaPedido:  o.SubmittedAt,
		fieldEstado:       o.Status.Legacy(),
		fieldNumeroPedido: o.OrderNumber,
	}
	if o.UpdatedAt != nil {
		doc[fieldActualizacion] = *o.UpdatedAt
	}
	return doc
}

func orderFromDoc(id string, data map[string]any) models.Order {
	d := document(data)
	cliente := d.child(fieldCliente)

	celular := cliente.str(fieldTelefono)
	if celular == "" {
		celular = cliente.str(fieldCelular)
	}

	var lines []models.OrderLineItem
	for i, item := range d.children(fieldProductos) {
		line := models.OrderLineItem{
			OrderID:   id,
			Position:  i,
			ProductID: item.str(fieldID),
			Nombre:    item.str(fieldNombre),
			Precio:    item.decimal(fieldPrecio),
			Cantidad:  item.integer(fieldCantidad),
			Subtotal:  item.decimal(fieldSubtotal),
		}
		if _, ok := item[fieldSubtotal]; !ok {
			line.Subtotal = line.Precio.Mul(decimal.NewFromInt(int64(line.Cantidad)))
		}
		lines = append(lines, line)
	}

	status, err := enums.ParseOrderStatus(d.str(fieldEstado))
	if err != nil {
		status = enums.OrderStatusPending
	}

	order := models.Order{
		ID:          id,
		OrderNumber: d.str(fieldNumeroPedido),
		Customer: models.OrderCustomer{
			ID:       cliente.str(fieldID),
			Nombre:   cliente.str(fieldNombre),
			Apellido: cliente.str(fieldApellido),
			Celular:  celular,
			Email:    cliente.str(fieldEmail),
		},
		LineItems:   lines,
		PickupDate:  d.str(fieldFechaRetiro),
		PickupTime:  d.str(fieldHoraRetiro),
		PickupAt:    d.str(fieldFechaHora),
		Comments:    d.str(fieldComentarios),
		Total:       d.decimal(fieldTotal),
		TotalItems:  d.integer(fieldTotalItems),
		Status:      status,
		SubmittedAt: d.time(fieldFechaPedido),
	}
	if updated := d.time(fieldActualizacion); !updated.IsZero() {
		order.UpdatedAt = &updated
	}
	return order
}
