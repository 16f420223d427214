package validation

// UserCreate is used for POST /users
var UserCreate = RuleSet{
	{Field: "username", Required: true, Kind: KindString, Tag: "max=255"},
	{Field: "email", Required: true, Kind: KindString, Tag: "email"},
	{Field: "password", Required: true, Kind: KindString, Tag: "min=6,max=60"},
}

// UserReplace is used for PUT /users/{id}, a full replace which may create the user
var UserReplace = RuleSet{
	{Field: "username", Required: true, Kind: KindString, Tag: "max=255"},
	{Field: "email", Required: true, Kind: KindString, Tag: "email"},
	{Field: "password", Required: true, Kind: KindString, Tag: "min=6,max=60"},
	{Field: "status", Kind: Boolean},
}

// UserPatch is used for PATCH /users/{id}, every field is optional
var UserPatch = RuleSet{
	{Field: "username", Kind: KindString, Tag: "max=255"},
	{Field: "email", Kind: KindString, Tag: "email"},
	{Field: "password", Kind: KindString, Tag: "min=6,max=60"},
	{Field: "status", Kind: Boolean},
}

// MessageCreate is used for POST /users/{uid}/messages
var MessageCreate = RuleSet{
	{Field: "receiver_id", Required: true, Kind: Integer, Tag: "gt=0"},
	{Field: "subject", Required: true, Kind: KindString, Tag: "max=255"},
	{Field: "body", Required: true, Kind: KindString},
}

// MessageUpdate is used for PUT and PATCH /users/{uid}/messages/{mid}
var MessageUpdate = RuleSet{
	{Field: "read", Required: true, Kind: Boolean},
}
