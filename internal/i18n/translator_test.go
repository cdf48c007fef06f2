//go:build !integration

package i18n

import "testing"

func TestCatalog_Translate(t *testing.T) {
	c, err := NewCatalog("fr")
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	t.Run("resolves a key in the requested locale", func(t *testing.T) {
		got := c.Translate("en", "order.paymentCancelled", nil)
		if got != "Payment cancelled." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("falls back to the default locale", func(t *testing.T) {
		got := c.Translate("sw", "order.paymentCancelled", nil)
		if got != "Paiement annulé." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty locale uses the default", func(t *testing.T) {
		got := c.Translate("", "recharge.notYetPaid", nil)
		if got == "recharge.notYetPaid" {
			t.Error("expected a resolved message, got the key back")
		}
	})

	t.Run("unknown key returns the key", func(t *testing.T) {
		got := c.Translate("fr", "order.doesNotExist", nil)
		if got != "order.doesNotExist" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("order and recharge prefixes resolve independently", func(t *testing.T) {
		order := c.Translate("fr", "order.invalidPaymentUrl", nil)
		recharge := c.Translate("fr", "recharge.invalidPaymentUrl", nil)
		if order == recharge {
			t.Error("prefixed messages should differ")
		}
	})
}

func TestCatalog_UnknownDefaultLocale(t *testing.T) {
	if _, err := NewCatalog("xx"); err == nil {
		t.Fatal("expected an error for a default locale without a catalog")
	}
}
