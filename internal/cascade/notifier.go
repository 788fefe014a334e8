package cascade

import (
	"context"
	"fmt"

	"github.com/printforge/printforge-backend/internal/notifications"
	"github.com/printforge/printforge-backend/internal/users"
	"github.com/printforge/printforge-backend/pkg/db/models"
)

// VendorNotifier addresses product notifications to the owning vendor.
type VendorNotifier struct {
	users      users.Finder
	repo       *Repository
	dispatcher notifications.Dispatcher
}

// NewVendorNotifier wires the notifier.
func NewVendorNotifier(finder users.Finder, repo *Repository, dispatcher notifications.Dispatcher) (*VendorNotifier, error) {
	if finder == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cascade repository required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	return &VendorNotifier{users: finder, repo: repo, dispatcher: dispatcher}, nil
}

func (n *VendorNotifier) NotifyProductValidated(ctx context.Context, product models.VendorProduct) error {
	vendor, err := n.users.FindByID(ctx, product.VendorID)
	if err != nil {
		return fmt.Errorf("load vendor %s: %w", product.VendorID, err)
	}

	designName := ""
	if product.DesignID != nil {
		if design, err := n.repo.FindDesign(ctx, *product.DesignID); err == nil {
			designName = design.Name
		}
	}
	return n.dispatcher.Send(ctx, notifications.ProductValidated(*vendor, product, designName))
}
