package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (c *Category) BeforeCreate(*gorm.DB) error               { ensureID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error                { ensureID(&p.ID); return nil }
func (t *ProductTierPrice) BeforeCreate(*gorm.DB) error       { ensureID(&t.ID); return nil }
func (d *ProductDesignAreaPrice) BeforeCreate(*gorm.DB) error { ensureID(&d.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error                   { ensureID(&c.ID); return nil }
func (i *CartItem) BeforeCreate(*gorm.DB) error               { ensureID(&i.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error                  { ensureID(&o.ID); return nil }
func (l *OrderLineItem) BeforeCreate(*gorm.DB) error          { ensureID(&l.ID); return nil }
func (n *Notification) BeforeCreate(*gorm.DB) error           { ensureID(&n.ID); return nil }
func (a *Address) BeforeCreate(*gorm.DB) error                { ensureID(&a.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error                   { ensureID(&u.ID); return nil }
