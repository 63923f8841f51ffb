package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsElevated(t *testing.T) {
	assert.False(t, IsElevated(RoleCustomer))
	assert.True(t, IsElevated(RoleSupport))
	assert.True(t, IsElevated(RoleAdmin))
	assert.False(t, IsElevated(Role("GUEST")))
}

func TestCanBeAccessedBy(t *testing.T) {
	ticket := &SupportTicket{AuthorID: "user-1"}

	assert.True(t, ticket.CanBeAccessedBy("user-1", RoleCustomer), "authors keep access regardless of role")
	assert.False(t, ticket.CanBeAccessedBy("user-2", RoleCustomer))
	assert.True(t, ticket.CanBeAccessedBy("rep-1", RoleSupport))
	assert.True(t, ticket.CanBeAccessedBy("admin-1", RoleAdmin))
}

func TestValidTicketCategory(t *testing.T) {
	for _, category := range []TicketCategory{TicketCategoryBilling, TicketCategoryTechnical, TicketCategoryBooking, TicketCategoryOther} {
		assert.True(t, ValidTicketCategory(category))
	}
	assert.False(t, ValidTicketCategory("LAUNDRY"))
	assert.False(t, ValidTicketCategory(""))
}
