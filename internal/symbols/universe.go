package symbols

// Nifty50 is the built-in NIFTY 50 constituent list (as of 2024),
// already suffixed for Yahoo Finance. It is the last-resort tier when
// the NSE index CSV is unreachable and no local tickers.csv exists,
// so screening still runs on a slightly stale universe.
var Nifty50 = []string{
	// Financials
	"AXISBANK.NS", "BAJFINANCE.NS", "BAJAJFINSV.NS", "HDFCBANK.NS", "HDFCLIFE.NS",
	"ICICIBANK.NS", "INDUSINDBK.NS", "KOTAKBANK.NS", "SBILIFE.NS", "SBIN.NS",
	"SHRIRAMFIN.NS",
	// Information technology
	"HCLTECH.NS", "INFY.NS", "TCS.NS", "TECHM.NS", "WIPRO.NS",
	// Energy
	"BPCL.NS", "COALINDIA.NS", "NTPC.NS", "ONGC.NS", "POWERGRID.NS", "RELIANCE.NS",
	// Automobiles
	"BAJAJ-AUTO.NS", "EICHERMOT.NS", "HEROMOTOCO.NS", "M&M.NS", "MARUTI.NS",
	"TATAMOTORS.NS",
	// Consumer
	"ASIANPAINT.NS", "BRITANNIA.NS", "HINDUNILVR.NS", "ITC.NS", "NESTLEIND.NS",
	"TATACONSUM.NS", "TITAN.NS", "TRENT.NS",
	// Healthcare
	"APOLLOHOSP.NS", "CIPLA.NS", "DRREDDY.NS", "SUNPHARMA.NS",
	// Metals & mining
	"HINDALCO.NS", "JSWSTEEL.NS", "TATASTEEL.NS",
	// Infrastructure & cement
	"ADANIENT.NS", "ADANIPORTS.NS", "GRASIM.NS", "LT.NS", "ULTRACEMCO.NS",
	// Telecom & defence
	"BHARTIARTL.NS", "BEL.NS",
}
