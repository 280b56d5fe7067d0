package commerce

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Product is a catalog record as served by the commerce service.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

// Item is a cart line item on the wire.
type Item struct {
	ProductID string
	Color     string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Cart is a remote cart resource.
type Cart struct {
	ID      string
	OwnerID string
	Items   []Item
}

// CheckoutOrder is the payload submitted to the remote checkout operation.
// The service validates payment fields server-side.
type CheckoutOrder struct {
	Email         string
	FirstName     string
	LastName      string
	Address       string
	City          string
	PostalCode    string
	Phone         string
	PaymentMethod string
	CardNumber    string
	CardExpiry    string
	CardCVV       string
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse decimal")
	}
	return v, nil
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "stock":
			p.Stock, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

func decodeProducts(d *jx.Decoder) ([]Product, error) {
	var out []Product
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var it Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			it.ProductID, err = d.Str()
		case "color":
			it.Color, err = d.Str()
		case "size":
			it.Size, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		case "unit_price":
			it.UnitPrice, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}

func decodeCart(d *jx.Decoder) (Cart, error) {
	var c Cart
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			c.ID = v
			return err
		case "owner_id":
			v, err := d.Str()
			c.OwnerID = v
			return err
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				it, err := decodeItem(d)
				if err != nil {
					return err
				}
				c.Items = append(c.Items, it)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	return c, err
}

func decodeTrackingNumber(d *jx.Decoder) (string, error) {
	var tracking string
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "tracking_number":
			v, err := d.Str()
			tracking = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return "", err
	}
	if tracking == "" {
		return "", errors.New("missing tracking_number in checkout response")
	}
	return tracking, nil
}

func encodeItem(e *jx.Encoder, it Item) {
	e.ObjStart()
	e.FieldStart("product_id")
	e.Str(it.ProductID)
	e.FieldStart("color")
	e.Str(it.Color)
	e.FieldStart("size")
	e.Str(it.Size)
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("unit_price")
	e.Num(jx.Num(it.UnitPrice.String()))
	e.ObjEnd()
}

func encodeItems(items []Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		encodeItem(&e, it)
	}
	e.ArrEnd()
	return e.Bytes()
}

func encodeCreateCart(ownerID string) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("owner_id")
	e.Str(ownerID)
	e.ObjEnd()
	return e.Bytes()
}

func encodeCheckoutOrder(o CheckoutOrder) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("email")
	e.Str(o.Email)
	e.FieldStart("first_name")
	e.Str(o.FirstName)
	e.FieldStart("last_name")
	e.Str(o.LastName)
	e.FieldStart("address")
	e.Str(o.Address)
	e.FieldStart("city")
	e.Str(o.City)
	e.FieldStart("postal_code")
	e.Str(o.PostalCode)
	e.FieldStart("phone")
	e.Str(o.Phone)
	e.FieldStart("payment")
	e.ObjStart()
	e.FieldStart("method")
	e.Str(o.PaymentMethod)
	if o.PaymentMethod == "card" {
		e.FieldStart("card_number")
		e.Str(o.CardNumber)
		e.FieldStart("expiry")
		e.Str(o.CardExpiry)
		e.FieldStart("cvv")
		e.Str(o.CardCVV)
	}
	e.ObjEnd()
	e.ObjEnd()
	return e.Bytes()
}
