package mailer

import (
	"fmt"

	"github.com/thuanthe81/ecommerce-mailer/internal/domain"
)

// subjects maps (kind, locale) to the subject-line format. The order
// number is the single format argument.
var subjects = map[domain.EventKind]map[domain.Locale]string{
	domain.KindOrderConfirmation: {
		domain.LocaleEN: "Order confirmation #%s",
		domain.LocaleVI: "Xác nhận đơn hàng #%s",
	},
	domain.KindOrderStatusChanged: {
		domain.LocaleEN: "Update on your order #%s",
		domain.LocaleVI: "Cập nhật đơn hàng #%s",
	},
	domain.KindOrderCancelled: {
		domain.LocaleEN: "Your order #%s has been cancelled",
		domain.LocaleVI: "Đơn hàng #%s đã bị hủy",
	},
	domain.KindAdminNotification: {
		domain.LocaleEN: "New order received #%s",
		domain.LocaleVI: "Đơn hàng mới #%s",
	},
	domain.KindInvoiceResend: {
		domain.LocaleEN: "Your invoice for order #%s",
		domain.LocaleVI: "Hóa đơn cho đơn hàng #%s",
	},
	domain.KindAdminInvoice: {
		domain.LocaleEN: "Invoice for order #%s",
		domain.LocaleVI: "Hóa đơn đơn hàng #%s",
	},
}

// Subject returns the localized subject line for an event kind.
// Unknown combinations fall back to English, then to a generic line,
// so a missing translation never blocks a send.
func Subject(kind domain.EventKind, locale domain.Locale, orderNumber string) string {
	byLocale, ok := subjects[kind]
	if !ok {
		return fmt.Sprintf("Order #%s", orderNumber)
	}
	format, ok := byLocale[locale]
	if !ok {
		format = byLocale[domain.LocaleEN]
	}
	return fmt.Sprintf(format, orderNumber)
}
