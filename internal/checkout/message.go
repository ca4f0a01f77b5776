// Package checkout turns cart lines into a pre-filled messaging deep link.
// Nothing here performs network I/O.
package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"Storefront/internal/money"
)

const (
	defaultBaseURL = "https://wa.me"
	separator      = "━━━━━━━━━━━━━━━━━━"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNoPhone   = errors.New("shop phone number not configured")
)

var priceLocale = language.MustParse("es-CL")

type Shop struct {
	Name    string
	Phone   string
	BaseURL string
}

type Attribute struct {
	Name  string
	Value string
}

type Line struct {
	Name       string
	Attributes []Attribute
	Quantity   int
	UnitPrice  money.Amount
}

func (l Line) Subtotal() money.Amount {
	return l.UnitPrice.Mul(l.Quantity)
}

type Order struct {
	Message string       `json:"message"`
	URL     string       `json:"url"`
	Total   money.Amount `json:"total"`
	Count   int          `json:"count"`
}

// Compose builds the order summary for lines in cart order.
func Compose(shop Shop, lines []Line) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrEmptyCart
	}
	if strings.TrimSpace(shop.Phone) == "" {
		return Order{}, ErrNoPhone
	}

	total := money.Zero()
	count := 0
	for _, l := range lines {
		total = total.Add(l.Subtotal())
		count += l.Quantity
	}

	text := Message(shop, lines, total)
	return Order{
		Message: text,
		URL:     Link(shop, text),
		Total:   total,
		Count:   count,
	}, nil
}

func Message(shop Shop, lines []Line, total money.Amount) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Hola %s!* 👋\n\n", shop.Name)
	b.WriteString("Quisiera realizar el siguiente pedido:\n\n")
	b.WriteString(separator + "\n\n")

	for i, l := range lines {
		fmt.Fprintf(&b, "*%d. %s*\n", i+1, l.Name)
		for _, a := range l.Attributes {
			fmt.Fprintf(&b, "   • %s: %s\n", a.Name, a.Value)
		}
		fmt.Fprintf(&b, "   • Cantidad: %d\n", l.Quantity)
		fmt.Fprintf(&b, "   • Precio unitario: %s\n", FormatPrice(l.UnitPrice))
		fmt.Fprintf(&b, "   • Subtotal: %s\n\n", FormatPrice(l.Subtotal()))
	}

	b.WriteString(separator + "\n\n")
	fmt.Fprintf(&b, "*TOTAL: %s*\n\n", FormatPrice(total))
	b.WriteString("Quedo atento a la confirmación del pedido. ¡Gracias!")

	return b.String()
}

// Enquiry is the link used for a single-product question from the detail page.
func Enquiry(shop Shop, productName string) string {
	return Link(shop, "Hola, me interesa el producto "+productName)
}

// componentEscaper turns query escaping into encodeURIComponent output:
// spaces as %20 and !*'() left literal.
var componentEscaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%2A", "*",
	"%27", "'",
	"%28", "(",
	"%29", ")",
)

// Link escapes text exactly like encodeURIComponent.
func Link(shop Shop, text string) string {
	base := strings.TrimRight(shop.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	escaped := componentEscaper.Replace(url.QueryEscape(text))
	return base + "/" + url.PathEscape(shop.Phone) + "?text=" + escaped
}

// FormatPrice renders whole pesos with es-CL digit grouping, e.g. $12.500.
func FormatPrice(a money.Amount) string {
	p := message.NewPrinter(priceLocale)
	return p.Sprintf("$%d", a.IntPart())
}
