package model

import "strconv"

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// Key helpers used as table row keys and in URLs.

func (u User) Key() string    { return itoa(u.UID) }
func (p Pin) Key() string     { return itoa(p.PID) }
func (t Tag) Key() string     { return itoa(t.TID) }
func (m AIModel) Key() string { return itoa(m.MID) }
func (k Keyword) Key() string { return itoa(k.ID) }
func (r Report) Key() string  { return itoa(r.ID) }
