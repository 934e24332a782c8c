package receipt

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	dateLayout = "Monday, January 2, 2006"
	timeLayout = "03:04 PM"
)

var separator = strings.Repeat("─", 35)

type Formatter struct {
	currencySymbol string
}

func NewFormatter(currencySymbol string) Formatter {
	if currencySymbol == "" {
		currencySymbol = "€"
	}
	return Formatter{
		currencySymbol: currencySymbol,
	}
}

// Format renders the message for the shop owner. Apart from now, the output only depends on r.
func (f Formatter) Format(r Receipt, now time.Time) string {
	sb := strings.Builder{}

	sb.WriteString("🧾 **NEW ORDER - PICOTEO**\n\n")
	fmt.Fprintf(&sb, "📅 **Date:** %s\n", now.Format(dateLayout))
	fmt.Fprintf(&sb, "⏰ **Time:** %s\n\n", now.Format(timeLayout))

	sb.WriteString("👤 **Customer:**\n")
	fmt.Fprintf(&sb, "Name: %s\n", r.Customer.Name)
	fmt.Fprintf(&sb, "Phone: %s\n\n", r.Customer.Phone)

	sb.WriteString("🛒 **Order Details:**\n")
	fmt.Fprintf(&sb, "Type: %s\n\n", typeLabel(r.OrderType))

	sb.WriteString("📦 **Items Ordered:**\n")
	sb.WriteString(separator + "\n")
	for idx, l := range r.Lines {
		fmt.Fprintf(&sb, "%d. %s\n", idx+1, l.Name)
		fmt.Fprintf(&sb, "   %s per %s × %d\n", f.money(l.BasePricePerUnit), l.Unit, l.Quantity)
		fmt.Fprintf(&sb, "   Subtotal: %s\n\n", f.money(l.Subtotal()))
	}
	sb.WriteString(separator + "\n")
	fmt.Fprintf(&sb, "💰 **TOTAL: %s**\n", f.money(r.Total()))
	sb.WriteString(separator + "\n\n")

	sb.WriteString("📍 **Next Steps:**\n")
	if r.OrderType == OrderTypeStripe {
		sb.WriteString("• Payment already processed via Stripe\n")
		sb.WriteString("• Please prepare the order\n")
		sb.WriteString("• Customer will arrange pickup\n")
	} else {
		sb.WriteString("• Customer will pick up in person\n")
		sb.WriteString("• Please prepare the order\n")
		sb.WriteString("• Collect payment on pickup\n")
	}

	sb.WriteString("\n🌟 *Powered by Picoteo - Local Marketplace*")

	return sb.String()
}

func (f Formatter) money(amount float64) string {
	return fmt.Sprintf("%s%.2f", f.currencySymbol, amount)
}

func typeLabel(orderType OrderType) string {
	if orderType == OrderTypeStripe {
		return "💳 Paid with Stripe"
	}
	return "🚶 Pickup in Person"
}

// WhatsappURL returns a click-to-chat link that opens the message for the given phone number.
func WhatsappURL(phone string, text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", digitsOnly(phone), strings.ReplaceAll(url.QueryEscape(text), "+", "%20"))
}

func digitsOnly(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}
