package events

// defaultEntries is the built-in phrase table. Order matters: it is the
// lookup order.
var defaultEntries = []Entry{
	{"failed sign-in", 4625},
	{"successful sign-in", 4624},
	{"account lockout", 4740},
	{"password change", 4723},
	{"account creation", 4720},
	{"logon type", 4624},
	{"registry value was modified", 4657},
	{"user account was changed", 4738},
	{"user account was enabled", 4722},
	{"user account was disabled", 4725},
	{"user account was deleted", 4726},
	{"user account was undeleted", 4743},
	{"user account was locked out", 4767},
	{"user account was unlocked", 4768},
	{"user account was created", 4720},
	{"attempt was made to duplicate a handle to an object", 4690},
	{"indirect access to an object was requested", 4691},
	{"backup of data protection master key was attempted", 4692},
	{"recovery of data protection master key was attempted", 4693},
	{"protection of auditable protected data was attempted", 4694},
	{"unprotection of auditable protected data was attempted", 4695},
	{"a primary token was assigned to process", 4696},
	{"a service was installed in the system", 4697},
	{"a scheduled task was created", 4698},
	{"a scheduled task was deleted", 4699},
	{"a scheduled task was enabled", 4700},
	{"a scheduled task was disabled", 4701},
	{"a scheduled task was updated", 4702},
	{"a token right was adjusted", 4703},
	{"a user right was assigned", 4704},
	{"a user right was removed", 4705},
	{"a new trust was created to a domain", 4706},
	{"a trust to a domain was removed", 4707},
	{"ipsec services was started", 4709},
	{"ipsec services was disabled", 4710},
}

// Default returns the built-in Windows security event table.
func Default() *Table {
	t, err := NewTable(defaultEntries)
	if err != nil {
		// the built-in table is static; a failure here is a programming error
		panic("events: invalid default table: " + err.Error())
	}
	return t
}
