package console

// CSS selectors scraped from the backoffice's rendered markup. These are
// brittle by nature; they track whatever the vendor ships and live in one
// place so a console upgrade only touches this file.
const (
	// Login page.
	selLoginUser   = `input[name="j_username"]`
	selLoginPass   = `input[name="j_password"]`
	selLoginSubmit = `button[type="submit"].login_button`

	// Module list view.
	selModuleRow    = `table.module-listing tbody tr`
	selModuleName   = `td.module-name a`
	selModuleStatus = `td.module-status span`
	selListNextPage = `div.listing-pagination a.next:not(.disabled)`

	// Module administration page.
	selStatusWarning  = `div.module-detail span.status-flag.warning`
	selPublishButton  = `div.module-actions button[data-action="publish"]`
	selPublishSpinner = `div.module-actions .publish-progress`
	selStatusCurrent  = `div.module-detail span.status-flag.current`

	// Status text the listing uses for modules needing a republish.
	statusWarningText = "Outdated"
)

// listPath is the module listing view, page is 1-based.
const listPath = "/backoffice/modules?page=%d"

// loginPath is the console's form login page.
const loginPath = "/backoffice/login"
