package dialog

// Menus are rows of button labels; the transport layer turns them into
// reply keyboards.

// MainMenu is shown on /start and after every completed operation.
func MainMenu() [][]string {
	return [][]string{
		{BtnRegister, BtnStats},
		{BtnCalendar, BtnEdit},
		{BtnAbout},
	}
}

func profileMenu() [][]string {
	return [][]string{
		{BtnEditName, BtnEditBirthdate},
		{BtnEditExpectancy},
		{BtnNotifications, BtnDeleteProfile},
		{BtnBackToMenu},
	}
}

func expectancyMenu() [][]string {
	return [][]string{
		{BtnExpectancy70, BtnExpectancy80, BtnExpectancy90},
		{BtnCustomValue},
		{BtnBack},
	}
}

func notificationMenu() [][]string {
	return [][]string{
		{BtnNotifyOn, BtnNotifyOff},
		{BtnBack},
	}
}

func deleteConfirmMenu() [][]string {
	return [][]string{
		{BtnDeleteYes, BtnDeleteNo},
	}
}
