package rewards

import "regexp"

const monDayYear = "Jan 2, 2006"

// Recipes returns the recipe of every supported provider.
func Recipes() []Recipe {
	return []Recipe{
		chase(), amex(), bilt(),
		delta(), united(), american(), southwest(), alaska(), koreanAir(), avianca(),
		marriott(), hilton(), hyatt(), ihg(),
	}
}

func chase() Recipe {
	return Recipe{
		ID: "chase",
		Login: []Step{
			navigate("https://ultimaterewardspoints.chase.com"),
			fill("input#userId-text-input-field", "username"),
			fill("input#password-text-input-field", "password"),
			click("button#signin-button"),
			wait("div.points-balance"),
		},
		// One balance per Ultimate Rewards card; the program total is their sum.
		Balance: BalanceRule{
			Selector: "div.points-balance",
			Pattern:  regexp.MustCompile(`^\s*([\d,]+)`),
			Sum:      true,
		},
		Logout: []Step{
			click("a#signOut, button#signOut"),
		},
	}
}

func amex() Recipe {
	return Recipe{
		ID: "amex",
		Login: []Step{
			navigate("https://www.americanexpress.com/en-us/account/login"),
			fill(`input[data-testid="userid-input"]`, "username"),
			fill(`input[data-testid="password-input"]`, "password"),
			click(`button[data-testid="submit-button"]`),
			wait("div.nav section"),
		},
		Balance: BalanceRule{
			URL:      "https://global.americanexpress.com/rewards/summary",
			Selector: `[data-testid="rewards-balance"]`,
			Pattern:  regexp.MustCompile(`([\d,]+)\s*(?:Membership Rewards|[Pp]oints)`),
			Sum:      true,
		},
		Logout: []Step{
			navigate("https://www.americanexpress.com/en-us/account/logout"),
		},
	}
}

func bilt() Recipe {
	return Recipe{
		ID: "bilt",
		Login: []Step{
			navigate("https://www.biltrewards.com/account"),
			clickIfPresent(`button[data-testid="login-button"]`),
			click(`button[data-testid="email-login"]`),
			fill(`input[type="email"]`, "email"),
			click(`button[type="submit"]`),
			prompt("form input", "Please enter passcode from Bilt sent to your email:"),
			wait(`a[href="/account"]`),
		},
		Balance: BalanceRule{
			Selector: `a[href="/account"]`,
			Pattern:  regexp.MustCompile(`\s([\d,]+) points`),
		},
		Logout: []Step{
			click(`a[href="/logout"]`),
			click(`button[data-testid="confirm-logout"]`),
		},
	}
}

func delta() Recipe {
	return Recipe{
		ID: "delta",
		Login: []Step{
			navigate("https://www.delta.com"),
			clickIfPresent("div.idp-error-tooltip button"),
			click("button#login-modal-button"),
			fill("idp-login-authentication-screen form idp-input:nth-of-type(1) input", "username"),
			fill("idp-login-authentication-screen form idp-input:nth-of-type(2) input", "password"),
			click("idp-login-authentication-screen form idp-button"),
			wait("ngc-login"),
		},
		Balance: BalanceRule{
			URL:      "https://www.delta.com/myskymiles/overview",
			Selector: "idp-skymiles-overview idp-overview-summary",
			Pattern:  regexp.MustCompile(`([\d,]+)\s+MILES AVAILABLE`),
		},
		Logout: []Step{
			click("nav ngc-login"),
			click("div.modal-content div:last-child"),
		},
	}
}

func united() Recipe {
	return Recipe{
		ID: "ua",
		Login: []Step{
			navigate("https://www.united.com/en/us"),
			click(`button[aria-label="Sign in"]`),
			fill("div.atm-c-drawer__body div.atm-c-textfield input", "username"),
			click(`div.atm-c-drawer__body button[type="submit"]`),
			fill(`div.atm-c-drawer__body input[type="password"]`, "password"),
			click(`div.atm-c-drawer__body button[type="submit"]`),
		},
		Balance: BalanceRule{
			URL:      "https://www.united.com/en/us/myunited",
			Selector: `main [data-testid="mileage-balance"]`,
			Pattern:  regexp.MustCompile(`([\d,]+)\s*miles`),
		},
		Logout: []Step{
			click(`button[aria-label="Sign out"]`),
		},
	}
}

func american() Recipe {
	return Recipe{
		ID: "aa",
		Login: []Step{
			navigate("https://www.aa.com/loyalty/login"),
			fill("ail-input#username input", "username"),
			fill("ail-input#lastname input", "lastname"),
			fill("ail-input#password input", "password"),
			click("button#button_login"),
			wait("hp-account-dropdown-button"),
		},
		Balance: BalanceRule{
			URL:      "https://www.aa.com/aadvantage-program/profile/account-summary",
			Selector: `div[data-testid="award-miles-balance-text"]`,
			Pattern:  regexp.MustCompile(`([\d,]+)`),
		},
		// Miles do not expire for co-branded card holders.
		Expiry: ExpiryRule{
			Kind:     ExpiryExplicit,
			Selector: `div[data-testid="award-miles-balance-section"]`,
			Pattern:  regexp.MustCompile(`expire on\s+(?P<date>[A-Za-z]{3}\s+\d{1,2},\s+\d{4})`),
			Layout:   monDayYear,
			NeverIf:  "no miles expiration",
		},
		Logout: []Step{
			click("li#headerCustomerInfo button, li#utilityCustomerInfo a"),
			click("li#headerCustomerInfo p#logout-button, li#utilityCustomerInfo a:nth-of-type(2)"),
		},
	}
}

func southwest() Recipe {
	return Recipe{
		ID: "southwest",
		Login: []Step{
			navigate("https://www.southwest.com/"),
			click("div.header-control button.login-button"),
			fill("div.overlay-container form input:nth-of-type(1)", "username"),
			fill(`div.overlay-container form input[type="password"]`, "password"),
			click("div.overlay-container form button"),
		},
		Balance: BalanceRule{
			URL:      "https://www.southwest.com/account",
			Selector: `[data-qa="rapid-rewards-points"]`,
			Pattern:  regexp.MustCompile(`([\d,]+)`),
		},
		Logout: []Step{
			click("div.header-control button.logout-button"),
		},
	}
}

func alaska() Recipe {
	return Recipe{
		ID: "alaska",
		Login: []Step{
			navigate("https://www.alaskaair.com"),
			fill(`ul.top-menu-list form input[name="UserId"]`, "username"),
			fill(`ul.top-menu-list form input[name="Password"]`, "password"),
			click("ul.top-menu-list form button"),
			wait("div.mp-info"),
		},
		Balance: BalanceRule{
			Selector: "div.mp-info",
			Pattern:  regexp.MustCompile(`:\s*([\d,]+)`),
		},
		Logout: []Step{
			click("ul.top-menu-list li.account-menu > a"),
			click("ul.top-menu-list li.account-menu li:last-child a"),
		},
	}
}

func koreanAir() Recipe {
	return Recipe{
		ID: "korean_air",
		Login: []Step{
			navigate("https://www.koreanair.com/login"),
			fill("ke-text-input input", "username"),
			fill("ke-password-input input", "password"),
			click(`form button[type="submit"]`),
			wait("ul.headers__utils--list"),
		},
		Balance: BalanceRule{
			URL:      "https://www.koreanair.com/my-mileage/overview",
			Selector: "div.mileage-overview__available",
			Pattern:  regexp.MustCompile(`([\d,]+)\s*Miles`),
		},
		// The first row of the expiration table is the soonest expiring month.
		Expiry: ExpiryRule{
			Kind:     ExpiryExplicit,
			URL:      "https://www.koreanair.com/my-mileage/expiration",
			Selector: "table tr:nth-of-type(2) th",
			Pattern:  regexp.MustCompile(`(?P<date>\d{4}\.\d{2})`),
			Layout:   "2006.01",
		},
		Logout: []Step{
			navigate("https://www.koreanair.com"),
			click("ul.headers__utils--list li:nth-of-type(2)"),
			click("button#my-tooltip-logout-btn"),
		},
	}
}

func avianca() Recipe {
	return Recipe{
		ID: "avianca",
		Login: []Step{
			navigate("https://www.lifemiles.com/account/overview"),
			click("a#social-Lifemiles"),
			fill("input#username", "username"),
			fill("input#password", "password"),
			click("button#Login-confirm"),
		},
		Balance: BalanceRule{
			Selector: `div[data-cy="OverviewTitleTxt"]`,
			Pattern:  regexp.MustCompile(`\s([\d,]+)\s*$`),
		},
		Expiry: ExpiryRule{
			Kind:     ExpiryExplicit,
			Selector: `div[data-cy="OverviewPointsExpirationDateTxt"]`,
			Pattern:  regexp.MustCompile(`:\s*(?P<date>\d{2}/\d{2}/\d{4})`),
			Layout:   "01/02/2006",
		},
		Logout: []Step{
			click("div.menu-ui-Menu_button"),
			click("div#ProfileTooltipId button"),
		},
	}
}

func marriott() Recipe {
	return Recipe{
		ID: "marriott",
		Login: append([]Step{
			navigate("https://www.marriott.com/signInOverlay.mi"),
			clickIfPresent(`button[aria-label="Sign in with different account"]`),
			fill("form input#signin-user", "username"),
			fill("form input#signin-password", "password"),
			click(`form button[type="submit"]`),
		}, when("div.confirm-identity-container",
			click(`div[data-component-name="a-ui-library-RadioButton"] label`),
			click("div.confirm-identity-container button"),
			prompt(`input[type="number"]`, "Please enter passcode from Marriott sent to your email:"),
			click(`button[data-testid="verify-button"]`),
		)...),
		Balance: BalanceRule{
			URL:      "https://www.marriott.com/loyalty/myAccount/activity.mi",
			Selector: "div.container__left--points",
			Pattern:  regexp.MustCompile(`([\d,]+)`),
		},
		Expiry: ExpiryRule{
			Kind:     ExpiryLastActivity,
			Selector: "div.activity-row",
			Pattern:  regexp.MustCompile(`(?s)^(?P<date>[A-Za-z]{3} \d{1,2}, \d{4}).*?(?P<points>[-+]?[\d,]+)\s+Points`),
			Layout:   monDayYear,
		},
		Logout: []Step{
			click("li.m-header__acnt"),
			click("a.mp__member-logout"),
		},
	}
}

func hilton() Recipe {
	return Recipe{
		ID: "hilton",
		Login: []Step{
			navigate("https://www.hilton.com/en/hilton-honors/login/"),
			fill(`form input[name="username"]`, "username"),
			fill(`form input[name="password"]`, "password"),
			click(`form button[type="submit"]`),
			wait(`[data-testid="honorsPointsBalance"]`),
		},
		Balance: BalanceRule{
			Selector: `[data-testid="honorsPointsBalance"]`,
			Pattern:  regexp.MustCompile(`([\d,]+)`),
		},
		Expiry: ExpiryRule{
			Kind:     ExpiryLastActivity,
			URL:      "https://www.hilton.com/en/hilton-honors/guest/activity/",
			Selector: "main div.container-fluid section > div",
			Pattern:  regexp.MustCompile(`(?s)(?P<date>[A-Z][a-z]+ \d{1,2}, \d{4}).*?(?P<points>[-+]\s*[\d,]+)\s*$`),
			Layout:   "January 2, 2006",
		},
		Logout: []Step{
			click(`button[data-testid="header-account-menu"]`),
			click(`button[data-testid="sign-out"]`),
		},
	}
}

func hyatt() Recipe {
	return Recipe{
		ID: "hyatt",
		Login: []Step{
			navigate("https://www.hyatt.com/en-US/member/sign-in/traditional"),
			fill(`form[name="signin-form"] input[name="userId"]`, "username"),
			fill(`form[name="signin-form"] input[name="lastName"]`, "lastname"),
			fill(`form[name="signin-form"] input[name="password"]`, "password"),
			click(`form[name="signin-form"] button[type="submit"]`),
			wait(`div[data-locator="account-panel"]`),
		},
		Balance: BalanceRule{
			URL:      "https://www.hyatt.com/profile/en-US/account-overview",
			Selector: `[data-locator="point-balance"]`,
			Pattern:  regexp.MustCompile(`([\d,]+)`),
		},
		Expiry: ExpiryRule{
			Kind:     ExpiryLastActivity,
			URL:      "https://www.hyatt.com/profile/en-US/account-activity",
			Selector: `div[data-js="transactions"] div.b-mb2`,
			Pattern:  regexp.MustCompile(`(?s)\s(?P<date>[A-Za-z]{3}\s+\d{1,2},\s+\d{4})\s.*?Points\s+(?P<points>[-\d,]+)`),
			Layout:   monDayYear,
		},
		Logout: []Step{
			click(`div[data-locator="account-panel"]`),
			click("div.hbe-header_profile-signout"),
		},
	}
}

func ihg() Recipe {
	return Recipe{
		ID: "ihg",
		Login: []Step{
			navigate("https://www.ihg.com/rewardsclub/us/en/sign-in"),
			fill(`div.login_modal form input[data-gigya-name="loginID"]`, "username"),
			fill(`div.login_modal form input[type="password"]`, "password"),
			click(`div.login_modal form input[type="submit"]`),
			wait("div.right-container"),
		},
		Balance: BalanceRule{
			Selector: "div.right-container",
			Pattern:  regexp.MustCompile(`\s([\d,]+)\s`),
		},
		Expiry: ExpiryRule{
			Kind:     ExpiryLastActivity,
			URL:      "https://www.ihg.com/rewardsclub/us/en/account-mgmt/activity",
			Selector: "app-account-activities div.row",
			Pattern:  regexp.MustCompile(`(?s)(?P<date>[A-Z][a-z]{2} \d{1,2}, \d{4}).*?(?P<points>[-+]?[\d,]+) pts`),
			Layout:   monDayYear,
		},
		Logout: []Step{
			click("div.logIn a.sign-out"),
		},
	}
}
