// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package attributes

// Well-known attribute keys. Extensions populate the identity keys
// themselves; the host injects the directory keys during initialization.
const (
	KeyID          = "id"
	KeyName        = "name"
	KeyDescription = "description"
	KeyAuthor      = "author"
	KeyVersion     = "version"

	// KeyWebPort is the port an app serves its own web page on, if any.
	KeyWebPort   = "web_port"
	KeyThumbnail = "thumbnail"
	KeyMainPage  = "main_page"
	KeyHomePage  = "home_page"
	KeyFunding   = "funding"

	KeyResourcesDirectory = "resources_directory"
	KeyUserDataDirectory  = "user_data_directory"
)

// IdentityKeys are the keys every extension must populate.
var IdentityKeys = []string{KeyID, KeyName, KeyDescription, KeyAuthor}
